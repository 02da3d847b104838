package auth

import (
	"math"
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest password the setup form accepts.
const MinPasswordLength = 8

// Strength is a rough rating of a new password, shown as a meter while
// the operator types.
type Strength struct {
	Score int    `json:"score"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// PasswordStrength scores pw from 0 to 4: a point each for reaching 8, 10
// and 12 characters and half a point for each character class used
// (lower, upper, digit, other). An empty password scores 0 with no label.
func PasswordStrength(pw string) Strength {
	if pw == "" {
		return Strength{Score: 0, Color: "#D1D5DB"}
	}

	var score float64
	n := len([]rune(pw))
	for _, threshold := range []int{8, 10, 12} {
		if n >= threshold {
			score++
		}
	}

	var lower, upper, digit, other bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			other = true
		}
	}
	for _, has := range []bool{lower, upper, digit, other} {
		if has {
			score += 0.5
		}
	}

	s := min(4, int(math.Round(score)))
	switch {
	case s <= 1:
		return Strength{Score: s, Label: "Weak", Color: "#EF4444"}
	case s == 2:
		return Strength{Score: s, Label: "Fair", Color: "#F59E0B"}
	case s == 3:
		return Strength{Score: s, Label: "Good", Color: "#3B82F6"}
	}
	return Strength{Score: s, Label: "Strong", Color: "#10B981"}
}

// NormalizeSetupCode uppercases a setup code, drops everything but letters
// and digits, and inserts the dash: "ab12 cd34" becomes "AB12-CD34".
func NormalizeSetupCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	cleaned := b.String()
	if len(cleaned) <= 4 {
		return cleaned
	}
	return cleaned[:4] + "-" + cleaned[4:min(8, len(cleaned))]
}

// validSetupCode reports whether code has the XXXX-XXXX shape.
func validSetupCode(code string) bool {
	if len(code) != 9 || code[4] != '-' {
		return false
	}
	for i, r := range code {
		if i == 4 {
			continue
		}
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// validateSetup checks the setup form and returns the first problem, or "".
func validateSetup(req *SetupRequest) string {
	if strings.TrimSpace(req.Email) == "" || req.SetupCode == "" || req.Password == "" {
		return "Please fill in all fields"
	}
	if len([]rune(req.Password)) < MinPasswordLength {
		return "Password must be at least 8 characters long"
	}
	if req.Password != req.Confirm {
		return "Passwords do not match"
	}
	if !validSetupCode(req.SetupCode) {
		return "Setup code must be in format XXXX-XXXX"
	}
	return ""
}
