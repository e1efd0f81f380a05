package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const bearerPrefix = "bearer "

// Authenticator turns an Authorization header into a live principal.
type Authenticator struct {
	tokens *Tokens
	store  CredentialStore
}

// NewAuthenticator wires the token verifier to the credential store.
func NewAuthenticator(tokens *Tokens, store CredentialStore) *Authenticator {
	return &Authenticator{tokens: tokens, store: store}
}

// ExtractToken returns the token from an Authorization header value.
// Both "Bearer <token>" (any case) and a raw token are accepted.
func ExtractToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingCredential
	}
	token := header
	if len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		token = strings.TrimSpace(header[len(bearerPrefix):])
	} else if strings.EqualFold(header, strings.TrimSpace(bearerPrefix)) {
		token = ""
	}
	if token == "" || strings.ContainsAny(token, " \t\r\n") {
		return "", ErrMalformedCredential
	}
	return token, nil
}

// Authenticate runs header extraction, token verification and the principal lookup.
// The returned principal carries the role currently stored, not the one in the token.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (Principal, error) {
	token, err := ExtractToken(header)
	if err != nil {
		return Principal{}, err
	}
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return Principal{}, err
	}
	cred, err := a.store.FindCredentialByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrPrincipalNotFound
		}
		return Principal{}, fmt.Errorf("load principal: %w", err)
	}
	return cred.Principal(), nil
}
