package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExtractToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		err    error
	}{
		{"", "", ErrMissingCredential},
		{"   ", "", ErrMissingCredential},
		{"Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"bearer abc.def.ghi", "abc.def.ghi", nil},
		{"BEARER   abc.def.ghi  ", "abc.def.ghi", nil},
		{"abc.def.ghi", "abc.def.ghi", nil},
		{"Bearer", "", ErrMalformedCredential},
		{"Bearer    ", "", ErrMalformedCredential},
		{"Bearer abc def", "", ErrMalformedCredential},
		{"Basic dXNlcjpwYXNz", "", ErrMalformedCredential},
	}
	for _, tc := range cases {
		got, err := ExtractToken(tc.header)
		if !errors.Is(err, tc.err) {
			t.Fatalf("ExtractToken(%q) err = %v, want %v", tc.header, err, tc.err)
		}
		if got != tc.want {
			t.Fatalf("ExtractToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestAuthenticateStates(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tokens := newTestTokens(t, clock)
	store := newMemStore()
	alice := store.seed(t, "alice", "secret123", RoleVolunteer, "org-1")
	authn := NewAuthenticator(tokens, store)
	ctx := context.Background()

	token, _, err := tokens.Issue(alice.ID, alice.Role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	p, err := authn.Authenticate(ctx, "Bearer "+token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.ID != alice.ID || p.Role != RoleVolunteer || p.OrganizationID != "org-1" {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if _, err := authn.Authenticate(ctx, token); err != nil {
		t.Fatalf("raw token should be accepted: %v", err)
	}

	if _, err := authn.Authenticate(ctx, ""); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if _, err := authn.Authenticate(ctx, "Bearer "); !errors.Is(err, ErrMalformedCredential) {
		t.Fatalf("err = %v, want ErrMalformedCredential", err)
	}
	if _, err := authn.Authenticate(ctx, "Bearer not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}

	clock.t = clock.t.Add(25 * time.Hour)
	if _, err := authn.Authenticate(ctx, "Bearer "+token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestAuthenticateDeletedPrincipal(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tokens := newTestTokens(t, clock)
	store := newMemStore()
	bob := store.seed(t, "bob", "secret123", RoleDonor, "")
	authn := NewAuthenticator(tokens, store)

	token, _, err := tokens.Issue(bob.ID, bob.Role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := store.DeleteCredential(context.Background(), bob.ID); err != nil {
		t.Fatalf("DeleteCredential: %v", err)
	}
	if _, err := authn.Authenticate(context.Background(), "Bearer "+token); !errors.Is(err, ErrPrincipalNotFound) {
		t.Fatalf("err = %v, want ErrPrincipalNotFound", err)
	}
}

func TestAuthenticateUsesLiveRole(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tokens := newTestTokens(t, clock)
	store := newMemStore()
	carol := store.seed(t, "carol", "secret123", RoleVolunteer, "")
	authn := NewAuthenticator(tokens, store)

	token, _, err := tokens.Issue(carol.ID, RoleVolunteer)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := store.SetCredentialRole(context.Background(), carol.ID, RoleAdmin); err != nil {
		t.Fatalf("SetCredentialRole: %v", err)
	}

	p, err := authn.Authenticate(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Role != RoleAdmin {
		t.Fatalf("role = %s, want live role admin", p.Role)
	}
}

func TestAuthenticateLooksUpEveryRequest(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tokens := newTestTokens(t, clock)
	store := newMemStore()
	dave := store.seed(t, "dave", "secret123", RoleEmployee, "org-1")
	authn := NewAuthenticator(tokens, store)

	token, _, err := tokens.Issue(dave.ID, dave.Role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	before := store.reads
	for i := 0; i < 3; i++ {
		if _, err := authn.Authenticate(context.Background(), token); err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
	}
	if got := store.reads - before; got != 3 {
		t.Fatalf("store reads = %d, want 3", got)
	}
}

func TestAuthenticateStoreFailure(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tokens := newTestTokens(t, clock)
	store := newMemStore()
	erin := store.seed(t, "erin", "secret123", RoleDonor, "")
	authn := NewAuthenticator(tokens, store)

	token, _, err := tokens.Issue(erin.ID, erin.Role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	boom := errors.New("connection reset")
	store.failErr = boom
	_, err = authn.Authenticate(context.Background(), token)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
	if errors.Is(err, ErrPrincipalNotFound) || IsVerifyError(err) {
		t.Fatalf("store failure misclassified: %v", err)
	}
}

func TestContextPrincipal(t *testing.T) {
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Fatal("unexpected principal in empty context")
	}
	ctx := ContextWithPrincipal(context.Background(), Principal{ID: "u1", Role: RoleDonor})
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.ID != "u1" || p.Role != RoleDonor {
		t.Fatalf("unexpected principal: %+v ok=%v", p, ok)
	}
}
