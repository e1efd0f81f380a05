package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const (
	minLoginNameLen = 3
	maxLoginNameLen = 64
	minPasswordLen  = 8
	// bcrypt only accepts this many bytes of input.
	maxPasswordLen = 72
)

// Service implements login and registration on top of Tokens and a credential store.
type Service struct {
	tokens *Tokens
	store  CredentialWriter
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithServiceClock overrides the timestamp source for created credentials.
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs Service.
func NewService(tokens *Tokens, store CredentialWriter, opts ...ServiceOption) *Service {
	s := &Service{tokens: tokens, store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokens exposes the issuer used by the service.
func (s *Service) Tokens() *Tokens { return s.tokens }

// Store exposes the credential store used by the service.
func (s *Service) Store() CredentialWriter { return s.store }

// Login checks the password of loginName and issues a token.
// Unknown names yield ErrNotFound, wrong passwords ErrBadCredentials.
func (s *Service) Login(ctx context.Context, loginName, password string) (string, Credential, error) {
	loginName = strings.TrimSpace(loginName)
	if loginName == "" || password == "" {
		return "", Credential{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	cred, err := s.store.FindCredentialByLoginName(ctx, loginName)
	if err != nil {
		return "", Credential{}, err
	}
	if !CheckPassword(password, cred.PasswordHash) {
		return "", Credential{}, ErrBadCredentials
	}
	token, _, err := s.tokens.Issue(cred.ID, cred.Role)
	if err != nil {
		return "", Credential{}, err
	}
	return token, cred, nil
}

// Register creates a credential. Elevated roles require an admin actor.
func (s *Service) Register(ctx context.Context, actor *Principal, in NewCredential) (Credential, error) {
	in.LoginName = strings.TrimSpace(in.LoginName)
	in.OrganizationID = strings.TrimSpace(in.OrganizationID)
	if err := ValidateLoginName(in.LoginName); err != nil {
		return Credential{}, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return Credential{}, err
	}
	if !in.Role.Valid() {
		return Credential{}, fmt.Errorf("%w: %q", ErrInvalidRole, in.Role)
	}
	if !CanAssignRole(actor, in.Role) {
		return Credential{}, ErrForbidden
	}
	if in.Role.RequiresOrganization() && in.OrganizationID == "" {
		return Credential{}, fmt.Errorf("%w: organization_id is required for role %s", ErrValidation, in.Role)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return Credential{}, err
	}
	now := s.now().UTC()
	return s.store.CreateCredential(ctx, Credential{
		LoginName:      in.LoginName,
		PasswordHash:   hash,
		Role:           in.Role,
		OrganizationID: in.OrganizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

// ChangeRole moves a credential into role. Only admins may do this.
func (s *Service) ChangeRole(ctx context.Context, actor Principal, id string, role Role) (Credential, error) {
	if !AdminOnly(actor) {
		return Credential{}, ErrForbidden
	}
	if !role.Valid() {
		return Credential{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	cred, err := s.store.FindCredentialByID(ctx, id)
	if err != nil {
		return Credential{}, err
	}
	if role.RequiresOrganization() && cred.OrganizationID == "" {
		return Credential{}, fmt.Errorf("%w: organization_id is required for role %s", ErrValidation, role)
	}
	return s.store.SetCredentialRole(ctx, id, role)
}

// ProfileChange is a self-service update. Role is deliberately absent.
type ProfileChange struct {
	LoginName      *string
	Password       *string
	OrganizationID *string
}

// UpdateProfile applies a profile change to credential id on behalf of actor.
// Only admins may move a credential between organizations.
func (s *Service) UpdateProfile(ctx context.Context, actor Principal, id string, ch ProfileChange) (Credential, error) {
	var upd CredentialUpdate
	if ch.LoginName != nil {
		name := strings.TrimSpace(*ch.LoginName)
		if err := ValidateLoginName(name); err != nil {
			return Credential{}, err
		}
		upd.LoginName = &name
	}
	if ch.Password != nil {
		if err := ValidatePassword(*ch.Password); err != nil {
			return Credential{}, err
		}
		hash, err := HashPassword(*ch.Password)
		if err != nil {
			return Credential{}, err
		}
		upd.PasswordHash = &hash
	}
	if ch.OrganizationID != nil {
		if !AdminOnly(actor) {
			return Credential{}, ErrForbidden
		}
		org := strings.TrimSpace(*ch.OrganizationID)
		if org == "" {
			cred, err := s.store.FindCredentialByID(ctx, id)
			if err != nil {
				return Credential{}, err
			}
			if cred.Role.RequiresOrganization() {
				return Credential{}, fmt.Errorf("%w: organization_id is required for role %s", ErrValidation, cred.Role)
			}
		}
		upd.OrganizationID = &org
	}
	return s.store.UpdateCredential(ctx, id, upd)
}

// ValidateLoginName checks length and character rules for login names.
func ValidateLoginName(name string) error {
	if n := len(name); n < minLoginNameLen || n > maxLoginNameLen {
		return fmt.Errorf("%w: username must be %d-%d characters", ErrValidation, minLoginNameLen, maxLoginNameLen)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: username must not contain whitespace", ErrValidation)
		}
	}
	return nil
}

// ValidatePassword enforces the password length bounds. The upper bound is in bytes.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, maxPasswordLen)
	}
	return nil
}
