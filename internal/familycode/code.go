package familycode

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

// CodeLength is the number of characters in a family code.
const CodeLength = 8

// codeChars is the alphabet used for family codes. Uppercase letters and
// digits only, so codes survive being read aloud or typed from paper.
const codeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var codePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// Generate creates a random 8-character family code using letters and numbers.
func Generate() (string, error) {
	code := make([]byte, CodeLength)

	for i := 0; i < CodeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		if err != nil {
			return "", err
		}
		code[i] = codeChars[num.Int64()]
	}

	return string(code), nil
}

// Normalize uppercases a code and strips the separators FormatCode adds,
// so user input like "ab3d-ef9h" matches a stored code.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.ReplaceAll(code, "-", "")
}

// ValidateFormat reports whether a code has the expected shape. It says
// nothing about whether the code exists or has expired.
func ValidateFormat(code string) bool {
	return codePattern.MatchString(code)
}

// FormatCode renders a code for display as two groups of four, "XXXX-XXXX".
// Codes of unexpected length are returned unchanged.
func FormatCode(code string) string {
	if len(code) != CodeLength {
		return code
	}
	return code[:4] + "-" + code[4:]
}
