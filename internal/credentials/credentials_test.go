package credentials

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestManager(now func() time.Time) *TokenManager {
	return NewTokenManager(TokenConfig{
		Secret:   "test-secret",
		Issuer:   "masterminds-api",
		Audience: "masterminds-app",
		TTL:      time.Hour,
		Now:      now,
	})
}

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("Sup3r$ecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3r$ecret", hash)
	assert.True(t, h.Compare(hash, "Sup3r$ecret"))
	assert.False(t, h.Compare(hash, "sup3r$ecret"))
}

func TestHasherLongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	long := "Aa1!" + strings.Repeat("x", 100)

	hash, err := h.Hash(long)
	require.NoError(t, err)
	assert.True(t, h.Compare(hash, long))
	assert.False(t, h.Compare(hash, long[:len(long)-1]+"y"), "bytes past 72 must still count")
}

func TestCheckStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
		label    string
		errCount int
	}{
		{name: "all classes with common sequence", password: "Password123!", valid: true, label: StrengthWeak},
		{name: "all classes", password: "Tr0ub4dor&X", valid: true, label: StrengthMedium},
		{name: "short lowercase repeated", password: "aaa", valid: false, label: StrengthVeryWeak, errCount: 4},
		{name: "missing special", password: "Password1", valid: false, label: StrengthWeak, errCount: 1},
		{name: "empty", password: "", valid: false, label: StrengthVeryWeak, errCount: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckStrength(tt.password)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.label, got.Label, "score %d", got.Score)
			assert.Len(t, got.Errors, tt.errCount)
		})
	}
}

func TestStrengthScoreClamped(t *testing.T) {
	assert.Equal(t, 0, strengthScore("111123"))
	assert.Equal(t, 45, strengthScore("Zx9!Zx9!Zx9!"))
}

// parse runs a token through the same steps as the auth middleware:
// signature via KeyFunc, then CheckClaims, with errors folded by Classify.
func parse(m *TokenManager, raw string) (*Claims, error) {
	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(raw, claims, m.KeyFunc, jwt.WithTimeFunc(m.now)); err != nil {
		return nil, Classify(err)
	}
	if err := m.CheckClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func TestIssueAndParse(t *testing.T) {
	m := newTestManager(nil)

	issued, err := m.Issue("42", "a@example.com", "user")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)
	assert.Equal(t, time.Hour, issued.ExpiresAt.Sub(issued.IssuedAt))

	claims, err := parse(m, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestClassifyDistinguishesExpiredFromMalformed(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	stale := newTestManager(func() time.Time { return past })
	current := newTestManager(nil)

	expired, err := stale.Issue("1", "a@example.com", "user")
	require.NoError(t, err)

	_, err = parse(current, expired.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenMalformed)

	_, err = parse(current, "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	other := NewTokenManager(TokenConfig{Secret: "other", Issuer: "masterminds-api", Audience: "masterminds-app", TTL: time.Hour})
	foreign, err := other.Issue("1", "a@example.com", "user")
	require.NoError(t, err)
	_, err = parse(current, foreign.Token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestCheckClaimsRejectsWrongAudience(t *testing.T) {
	m := newTestManager(nil)
	wrong := NewTokenManager(TokenConfig{Secret: "test-secret", Issuer: "masterminds-api", Audience: "elsewhere", TTL: time.Hour})

	issued, err := wrong.Issue("1", "a@example.com", "user")
	require.NoError(t, err)

	_, err = parse(m, issued.Token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestKeyFuncRejectsNonHMAC(t *testing.T) {
	m := newTestManager(nil)
	_, err := m.KeyFunc(&jwt.Token{Method: jwt.SigningMethodNone, Header: map[string]interface{}{"alg": "none"}})
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken()
	require.NoError(t, err)
	b, err := NewRefreshToken()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{128}$`), a)
	assert.NotEqual(t, a, b)
	assert.Len(t, HashToken(a), 64)
	assert.Equal(t, HashToken(a), HashToken(a))
}

func TestAttemptTrackerLocksAndRecovers(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewAttemptTracker(3, 30*time.Minute, func() time.Time { return now })

	d := tracker.Check("a@example.com")
	assert.True(t, d.Allowed)
	assert.Equal(t, 3, d.Remaining)

	for i := 0; i < 3; i++ {
		tracker.RecordFailure("a@example.com")
	}

	d = tracker.Check("a@example.com")
	assert.False(t, d.Allowed)
	assert.True(t, d.Locked)
	assert.Equal(t, 30*time.Minute, d.RetryAfter)

	now = now.Add(10 * time.Minute)
	d = tracker.Check("a@example.com")
	assert.True(t, d.Locked)
	assert.Equal(t, 20*time.Minute, d.RetryAfter)

	now = now.Add(21 * time.Minute)
	d = tracker.Check("a@example.com")
	assert.True(t, d.Allowed)
	assert.Equal(t, 3, d.Remaining)
}

func TestAttemptTrackerClear(t *testing.T) {
	tracker := NewAttemptTracker(5, time.Minute, nil)

	tracker.RecordFailure("ip")
	tracker.RecordFailure("ip")
	assert.Equal(t, 3, tracker.Check("ip").Remaining)

	tracker.Clear("ip")
	assert.Equal(t, 5, tracker.Check("ip").Remaining)
	assert.Equal(t, 5, tracker.Check("other").Remaining)
}
