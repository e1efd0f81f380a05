package auth

import "context"

// CredentialStore is the read side the authentication core depends on.
// Both lookups return ErrNotFound when no record matches.
type CredentialStore interface {
	FindCredentialByID(ctx context.Context, id string) (Credential, error)
	FindCredentialByLoginName(ctx context.Context, name string) (Credential, error)
}

// CredentialWriter adds the mutations used by registration and user management.
type CredentialWriter interface {
	CredentialStore
	CreateCredential(ctx context.Context, c Credential) (Credential, error)
	UpdateCredential(ctx context.Context, id string, upd CredentialUpdate) (Credential, error)
	SetCredentialRole(ctx context.Context, id string, role Role) (Credential, error)
	DeleteCredential(ctx context.Context, id string) error
	ListCredentials(ctx context.Context, limit, offset int) ([]Credential, error)
}
