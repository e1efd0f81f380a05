package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestTokens(t *testing.T, clock *fakeClock, opts ...TokenOption) *Tokens {
	t.Helper()
	opts = append([]TokenOption{WithClock(clock.Now)}, opts...)
	tokens, err := NewTokens([]byte("test-secret"), opts...)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	return tokens
}

func TestNewTokensRequiresSecret(t *testing.T) {
	for _, secret := range [][]byte{nil, []byte(""), []byte("   ")} {
		if _, err := NewTokens(secret); !errors.Is(err, ErrMissingSecret) {
			t.Fatalf("NewTokens(%q) err = %v, want ErrMissingSecret", secret, err)
		}
	}
}

func TestIssueAndVerify(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tokens := newTestTokens(t, clock)

	token, exp, err := tokens.Issue("user-42", RoleVolunteer)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := clock.t.Add(24 * time.Hour); !exp.Equal(want) {
		t.Fatalf("expiry = %v, want %v", exp, want)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected three segments, got %q", token)
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Role != RoleVolunteer {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
	if !claims.IssuedAt.Equal(clock.t) {
		t.Fatalf("issued at = %v, want %v", claims.IssuedAt, clock.t)
	}
	if claims.ID == "" {
		t.Fatal("expected token id")
	}
}

func TestVerifyExpired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tokens := newTestTokens(t, clock)

	token, _, err := tokens.Issue("user-1", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.t = clock.t.Add(24*time.Hour - time.Second)
	if _, err := tokens.Verify(token); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	clock.t = clock.t.Add(2 * time.Second)
	if _, err := tokens.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyShortTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tokens := newTestTokens(t, clock, WithTTL(time.Second))

	token, _, err := tokens.Issue("user-1", RoleDonor)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	clock.t = clock.t.Add(5 * time.Second)
	if _, err := tokens.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tokens := newTestTokens(t, clock)
	other, err := NewTokens([]byte("another-secret"), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}

	token, _, err := other.Issue("user-1", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_, err = tokens.Verify(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
	if strings.Contains(err.Error(), "test-secret") {
		t.Fatalf("error leaks secret: %v", err)
	}
}

func TestVerifyRejectsForeignSecretEvenWhenExpired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tokens := newTestTokens(t, clock)
	other, err := NewTokens([]byte("another-secret"), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	token, _, err := other.Issue("user-1", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	clock.t = clock.t.Add(48 * time.Hour)
	if _, err := tokens.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	tokens := newTestTokens(t, &fakeClock{t: time.Now()})
	cases := []string{
		"",
		"abc",
		"a.b",
		"a.b.c",
		"a.b.c.d",
		"eyJhbGciOiJIUzI1NiJ9.!!!.sig",
	}
	for _, tc := range cases {
		if _, err := tokens.Verify(tc); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("Verify(%q) err = %v, want ErrTokenInvalid", tc, err)
		}
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tokens := newTestTokens(t, clock)

	claims := jwt.MapClaims{
		"sub":  "user-1",
		"role": "admin",
		"iss":  DefaultIssuer,
		"iat":  clock.t.Unix(),
		"exp":  clock.t.Add(time.Hour).Unix(),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := tokens.Verify(unsigned); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}
	if _, err := tokens.Verify(hs512); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyRejectsLegacyRoleClaim(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tokens := newTestTokens(t, clock)

	claims := jwt.MapClaims{
		"sub":  "user-1",
		"role": "ngo_admin",
		"iss":  DefaultIssuer,
		"iat":  clock.t.Unix(),
		"exp":  clock.t.Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := tokens.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tokens := newTestTokens(t, clock)
	other := newTestTokens(t, clock, WithIssuer("someone-else"))

	token, _, err := other.Issue("user-1", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := tokens.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestIssueValidatesInput(t *testing.T) {
	tokens := newTestTokens(t, &fakeClock{t: time.Now()})
	if _, _, err := tokens.Issue(" ", RoleAdmin); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if _, _, err := tokens.Issue("user-1", Role("school_admin")); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("err = %v, want ErrInvalidRole", err)
	}
}

func TestWithTTLRejectsNonPositive(t *testing.T) {
	if _, err := NewTokens([]byte("s"), WithTTL(0)); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
