package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ngohub.org/internal/auth"
	"ngohub.org/internal/ids"
)

const credentialColumns = `id, login_name, password_hash, role, organization_id, created_at, updated_at`

var _ auth.CredentialWriter = (*DB)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (auth.Credential, error) {
	var (
		c    auth.Credential
		role string
		org  sql.NullString
	)
	if err := row.Scan(&c.ID, &c.LoginName, &c.PasswordHash, &role, &org, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return auth.Credential{}, err
	}
	parsed, err := auth.ParseRole(role)
	if err != nil {
		return auth.Credential{}, fmt.Errorf("credential %s: %w", c.ID, err)
	}
	c.Role = parsed
	c.OrganizationID = org.String
	return c, nil
}

// FindCredentialByID loads a credential by primary key.
func (s *DB) FindCredentialByID(ctx context.Context, id string) (auth.Credential, error) {
	if s.db == nil {
		return auth.Credential{}, errNoDB
	}
	c, err := scanCredential(s.queryRow(ctx, `select `+credentialColumns+` from credentials where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Credential{}, auth.ErrNotFound
	}
	return c, err
}

// FindCredentialByLoginName loads a credential by its unique login name.
func (s *DB) FindCredentialByLoginName(ctx context.Context, name string) (auth.Credential, error) {
	if s.db == nil {
		return auth.Credential{}, errNoDB
	}
	c, err := scanCredential(s.queryRow(ctx, `select `+credentialColumns+` from credentials where login_name = $1`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Credential{}, auth.ErrNotFound
	}
	return c, err
}

// CreateCredential inserts c with a fresh identifier.
func (s *DB) CreateCredential(ctx context.Context, c auth.Credential) (auth.Credential, error) {
	if s.db == nil {
		return auth.Credential{}, errNoDB
	}
	c.ID = ids.New()
	now := s.timestamp()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.exec(ctx, `
		insert into credentials (id, login_name, password_hash, role, organization_id, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.LoginName, c.PasswordHash, string(c.Role), nullIfEmpty(c.OrganizationID), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return auth.Credential{}, s.credentialError(err)
	}
	return c, nil
}

// UpdateCredential applies the non-nil fields of upd.
func (s *DB) UpdateCredential(ctx context.Context, id string, upd auth.CredentialUpdate) (auth.Credential, error) {
	if s.db == nil {
		return auth.Credential{}, errNoDB
	}
	var (
		setClauses []string
		args       []any
		idx        = 1
	)
	if upd.LoginName != nil {
		setClauses = append(setClauses, fmt.Sprintf("login_name = $%d", idx))
		args = append(args, *upd.LoginName)
		idx++
	}
	if upd.PasswordHash != nil {
		setClauses = append(setClauses, fmt.Sprintf("password_hash = $%d", idx))
		args = append(args, *upd.PasswordHash)
		idx++
	}
	if upd.OrganizationID != nil {
		setClauses = append(setClauses, fmt.Sprintf("organization_id = $%d", idx))
		args = append(args, nullIfEmpty(*upd.OrganizationID))
		idx++
	}
	if len(setClauses) == 0 {
		return s.FindCredentialByID(ctx, id)
	}
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", idx))
	args = append(args, s.timestamp())
	idx++
	query := fmt.Sprintf(`update credentials set %s where id = $%d`, strings.Join(setClauses, ", "), idx)
	args = append(args, id)

	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return auth.Credential{}, s.credentialError(err)
	}
	if err := requireAffected(res, auth.ErrNotFound); err != nil {
		return auth.Credential{}, err
	}
	return s.FindCredentialByID(ctx, id)
}

// SetCredentialRole changes the role of credential id.
func (s *DB) SetCredentialRole(ctx context.Context, id string, role auth.Role) (auth.Credential, error) {
	if s.db == nil {
		return auth.Credential{}, errNoDB
	}
	res, err := s.exec(ctx, `update credentials set role = $1, updated_at = $2 where id = $3`, string(role), s.timestamp(), id)
	if err != nil {
		return auth.Credential{}, s.credentialError(err)
	}
	if err := requireAffected(res, auth.ErrNotFound); err != nil {
		return auth.Credential{}, err
	}
	return s.FindCredentialByID(ctx, id)
}

// DeleteCredential removes credential id.
func (s *DB) DeleteCredential(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.exec(ctx, `delete from credentials where id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, auth.ErrNotFound)
}

// ListCredentials returns credentials ordered by login name.
func (s *DB) ListCredentials(ctx context.Context, limit, offset int) ([]auth.Credential, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	limit, offset = clampPage(limit, offset)
	rows, err := s.query(ctx, `select `+credentialColumns+` from credentials order by login_name limit $1 offset $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *DB) credentialError(err error) error {
	switch s.dialect.classify(err) {
	case errUnique:
		return auth.ErrConflict
	case errForeignKey:
		return fmt.Errorf("%w: organization does not exist", auth.ErrValidation)
	}
	return err
}

func requireAffected(res sql.Result, notFound error) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return notFound
	}
	return nil
}
