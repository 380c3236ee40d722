package rand

import (
	"crypto/rand"
	"math/big"

	"github.com/sirupsen/logrus"
)

const (
	// From: http://stackoverflow.com/questions/22892120/how-to-generate-a-random-string-of-a-fixed-length-in-golang
	allLetters   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	smallLetters = "0123456789abcdefghijklmnopqrstuvwxyz"

	transactionIDLength = 10
)

func StringWithAll(n int) string {
	return secureRandomString(allLetters, n)
}

func StringWithSmall(n int) string {
	return secureRandomString(smallLetters, n)
}

// TransactionID returns a 10 character alphanumeric client transaction id.
// Uniqueness is best-effort; the registry correlates request and response
// within a single exchange only.
func TransactionID() string {
	return secureRandomString(allLetters, transactionIDLength)
}

// Password generates an EPP auth password containing at least one lowercase,
// one uppercase, one digit and one symbol character.
func Password(length int) string {
	const (
		lowers  = "abcdefghijklmnopqrstuvwxyz"
		uppers  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		digits  = "0123456789"
		symbols = "!@#$%^&*()"
	)

	if length < 4 {
		length = 4
	}

	all := lowers + uppers + digits + symbols
	out := make([]byte, 0, length)
	out = append(out,
		lowers[randomIndex(len(lowers))],
		uppers[randomIndex(len(uppers))],
		digits[randomIndex(len(digits))],
		symbols[randomIndex(len(symbols))],
	)
	for i := 4; i < length; i++ {
		out = append(out, all[randomIndex(len(all))])
	}

	// Fisher-Yates so the guaranteed classes aren't always up front
	for i := len(out) - 1; i > 0; i-- {
		j := randomIndex(i + 1)
		out[i], out[j] = out[j], out[i]
	}

	return string(out)
}

func randomIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		logrus.Fatal("Unable to generate random index")
	}
	return int(v.Int64())
}

// secureRandomString returns a string of the requested length,
// made from the byte characters provided (only ASCII allowed).
// Uses crypto/rand for security. Will panic if len(availableCharBytes) > 256.
func secureRandomString(availableCharBytes string, length int) string {
	// Compute bitMask
	availableCharLength := len(availableCharBytes)
	if availableCharLength == 0 || availableCharLength > 256 {
		panic("availableCharBytes length must be greater than 0 and less than or equal to 256")
	}
	var bitLength byte
	var bitMask byte
	for bits := availableCharLength - 1; bits != 0; {
		bits = bits >> 1
		bitLength++
	}
	bitMask = 1<<bitLength - 1

	// Compute bufferSize
	bufferSize := length + length/3

	// Create random string
	result := make([]byte, length)
	for i, j, randomBytes := 0, 0, []byte{}; i < length; j++ {
		if j%bufferSize == 0 {
			// Random byte buffer is empty, get a new one
			randomBytes = secureRandomBytes(bufferSize)
		}
		// Mask bytes to get an index into the character slice
		if idx := int(randomBytes[j%length] & bitMask); idx < availableCharLength {
			result[i] = availableCharBytes[idx]
			i++
		}
	}

	return string(result)
}

// secureRandomBytes returns the requested number of bytes using crypto/rand
func secureRandomBytes(length int) []byte {
	var randomBytes = make([]byte, length)
	_, err := rand.Read(randomBytes)
	if err != nil {
		logrus.Fatal("Unable to generate random bytes")
	}
	return randomBytes
}
