package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.gr", "example.gr"},
		{"EXAMPLE.GR", "example.gr"},
		{"  example.gr ", "example.gr"},
		{"παράδειγμα.gr", "παραδειγμα.gr"},
		{"καφές.gr", "καφες.gr"},
		{"ΏΡΑ.ελ", "ωρα.ελ"},
		// Sigma takes its final form at word boundaries only
		{"ανδρεασ.gr", "ανδρεας.gr"},
		{"ανδρεασ-παπας.gr", "ανδρεας-παπας.gr"},
		{"σαλος.gr", "σαλος.gr"},
		{"προϊόν.gr", "προιον.gr"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, SanitizeDomain(tc.in), "input %q", tc.in)
	}
}
