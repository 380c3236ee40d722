package registry

import "strings"

// accentFold maps accented Greek vowels to their unaccented forms. The
// registry's EPP layer is diacritic-sensitive while users enter either form.
var accentFold = strings.NewReplacer(
	"ά", "α",
	"έ", "ε",
	"ή", "η",
	"ί", "ι",
	"ϊ", "ι",
	"ΐ", "ι",
	"ό", "ο",
	"ύ", "υ",
	"ϋ", "υ",
	"ΰ", "υ",
	"ώ", "ω",
	"Ά", "Α",
	"Έ", "Ε",
	"Ή", "Η",
	"Ί", "Ι",
	"Ϊ", "Ι",
	"Ό", "Ο",
	"Ύ", "Υ",
	"Ϋ", "Υ",
	"Ώ", "Ω",
)

// SanitizeDomain normalizes a Greek domain label the way the registry
// expects: fold accents, lowercase, and use the final-sigma form wherever a
// sigma ends a word (before a hyphen, a label separator or the end of the
// name).
func SanitizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = accentFold.Replace(domain)
	domain = strings.ToLower(domain)

	runes := []rune(domain)
	for i, r := range runes {
		if r != 'σ' {
			continue
		}
		if i == len(runes)-1 || runes[i+1] == '-' || runes[i+1] == '.' {
			runes[i] = 'ς'
		}
	}
	return string(runes)
}
