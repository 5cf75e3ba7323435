package credentials

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128

	// bcrypt ignores input past this many bytes.
	bcryptInputLimit = 72
)

const (
	StrengthVeryWeak   = "Very Weak"
	StrengthWeak       = "Weak"
	StrengthMedium     = "Medium"
	StrengthStrong     = "Strong"
	StrengthVeryStrong = "Very Strong"
)

var (
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	digitPattern   = regexp.MustCompile(`\d`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)

	commonSequences = []string{"123", "abc", "qwe"}
)

type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prepare(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (h *Hasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prepare(password)) == nil
}

// prepare pre-digests passwords longer than bcrypt's input limit so long
// passphrases stay fully significant.
func prepare(password string) []byte {
	if len(password) <= bcryptInputLimit {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

// Strength is the outcome of CheckStrength. Valid is false when any rule
// in Errors failed; Score and Label are informational.
type Strength struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
	Score  int      `json:"score"`
	Label  string   `json:"label"`
}

func CheckStrength(password string) Strength {
	var errs []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	}
	if !upperPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !lowerPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !digitPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one number")
	}
	if !specialPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one special character")
	}

	score := strengthScore(password)
	return Strength{
		Valid:  len(errs) == 0,
		Errors: errs,
		Score:  score,
		Label:  strengthLabel(score),
	}
}

func strengthScore(password string) int {
	score := min(utf8.RuneCountInString(password)*2, 20)

	if lowerPattern.MatchString(password) {
		score += 5
	}
	if upperPattern.MatchString(password) {
		score += 5
	}
	if digitPattern.MatchString(password) {
		score += 5
	}
	if specialPattern.MatchString(password) {
		score += 10
	}

	if hasRepeatedRun(password, 3) {
		score -= 10
	}
	lower := strings.ToLower(password)
	for _, seq := range commonSequences {
		if strings.Contains(lower, seq) {
			score -= 10
			break
		}
	}

	return max(0, min(100, score))
}

func strengthLabel(score int) string {
	switch {
	case score >= 80:
		return StrengthVeryStrong
	case score >= 60:
		return StrengthStrong
	case score >= 40:
		return StrengthMedium
	case score >= 20:
		return StrengthWeak
	default:
		return StrengthVeryWeak
	}
}

// hasRepeatedRun reports whether any rune appears n or more times in a row.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}
