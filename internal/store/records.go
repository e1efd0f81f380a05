package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"ngohub.org/internal/ids"
	"ngohub.org/internal/ngo"
)

var metaColumns = []string{"id", "organization_id", "owner_id", "created_at", "updated_at"}

// ListOptions narrows ListRecords.
type ListOptions struct {
	// OrganizationID limits results to one organization when non-empty.
	OrganizationID string
	Limit          int
	Offset         int
}

func selectColumns(rec ngo.Record) string {
	return strings.Join(append(append([]string{}, metaColumns...), ngo.Columns(rec)...), ", ")
}

func scanTargets(rec ngo.Record) []any {
	m := rec.Base()
	dest := []any{&m.ID, &m.OrganizationID, &m.OwnerID, &m.CreatedAt, &m.UpdatedAt}
	for _, f := range rec.Fields() {
		dest = append(dest, f.Ptr)
	}
	return dest
}

func fieldValues(rec ngo.Record) []any {
	fields := rec.Fields()
	vals := make([]any, len(fields))
	for i, f := range fields {
		vals[i] = reflect.ValueOf(f.Ptr).Elem().Interface()
	}
	return vals
}

// CreateRecord assigns identifier and timestamps to rec and inserts it.
// Organizations are scoped to themselves.
func (s *DB) CreateRecord(ctx context.Context, rec ngo.Record) error {
	if s.db == nil {
		return errNoDB
	}
	m := rec.Base()
	m.ID = ids.New()
	if rec.Kind() == ngo.KindOrganization {
		m.OrganizationID = m.ID
	}
	now := s.timestamp()
	m.CreatedAt, m.UpdatedAt = now, now

	cols := append(append([]string{}, metaColumns...), ngo.Columns(rec)...)
	args := append([]any{m.ID, m.OrganizationID, m.OwnerID, m.CreatedAt, m.UpdatedAt}, fieldValues(rec)...)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`insert into %s (%s) values (%s)`, rec.Kind(), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := s.exec(ctx, query, args...); err != nil {
		return s.recordError(err)
	}
	return nil
}

// GetRecord loads the record of kind with id.
func (s *DB) GetRecord(ctx context.Context, kind ngo.Kind, id string) (ngo.Record, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rec, err := ngo.New(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`select %s from %s where id = $1`, selectColumns(rec), kind)
	if err := s.queryRow(ctx, query, id).Scan(scanTargets(rec)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ngo.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListRecords returns records of kind ordered by identifier (creation order).
func (s *DB) ListRecords(ctx context.Context, kind ngo.Kind, opts ListOptions) ([]ngo.Record, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	proto, err := ngo.New(kind)
	if err != nil {
		return nil, err
	}
	limit, offset := clampPage(opts.Limit, opts.Offset)

	var (
		where string
		args  []any
	)
	if opts.OrganizationID != "" {
		where = "where organization_id = $1 "
		args = append(args, opts.OrganizationID)
	}
	n := len(args)
	query := fmt.Sprintf(`select %s from %s %sorder by id limit $%d offset $%d`, selectColumns(proto), kind, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []ngo.Record{}
	for rows.Next() {
		rec, _ := ngo.New(kind)
		if err := rows.Scan(scanTargets(rec)...); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateRecord writes every record-specific column of rec and bumps updated_at.
// Identifier, organization and owner are immutable.
func (s *DB) UpdateRecord(ctx context.Context, rec ngo.Record) error {
	if s.db == nil {
		return errNoDB
	}
	m := rec.Base()
	m.UpdatedAt = s.timestamp()

	cols := ngo.Columns(rec)
	setClauses := make([]string, 0, len(cols)+1)
	for i, c := range cols {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", c, i+1))
	}
	idx := len(cols) + 1
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", idx))
	args := append(fieldValues(rec), m.UpdatedAt, m.ID)
	query := fmt.Sprintf(`update %s set %s where id = $%d`, rec.Kind(), strings.Join(setClauses, ", "), idx+1)

	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return s.recordError(err)
	}
	return requireAffected(res, ngo.ErrNotFound)
}

// DeleteRecord removes the record of kind with id.
func (s *DB) DeleteRecord(ctx context.Context, kind ngo.Kind, id string) error {
	if s.db == nil {
		return errNoDB
	}
	if _, err := ngo.New(kind); err != nil {
		return err
	}
	res, err := s.exec(ctx, fmt.Sprintf(`delete from %s where id = $1`, kind), id)
	if err != nil {
		if s.dialect.classify(err) == errForeignKey {
			return fmt.Errorf("%w: record is still referenced", ngo.ErrConflict)
		}
		return err
	}
	return requireAffected(res, ngo.ErrNotFound)
}

func (s *DB) recordError(err error) error {
	switch s.dialect.classify(err) {
	case errUnique:
		return ngo.ErrConflict
	case errForeignKey:
		return fmt.Errorf("%w: referenced record does not exist", ngo.ErrInvalid)
	}
	return err
}
