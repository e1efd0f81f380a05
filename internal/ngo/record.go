// Package ngo defines the records managed by the service and their validation rules.
package ngo

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrInvalid     = errors.New("ngo: invalid record")
	ErrNotFound    = errors.New("ngo: record not found")
	ErrConflict    = errors.New("ngo: record already exists")
	ErrUnknownKind = errors.New("ngo: unknown record kind")
)

// Kind names a record collection. Values match the HTTP collection path and the table name.
type Kind string

const (
	KindOrganization Kind = "organizations"
	KindDonor        Kind = "donors"
	KindEmployee     Kind = "employees"
	KindEvent        Kind = "events"
	KindBeneficiary  Kind = "beneficiaries"
	KindVolunteer    Kind = "volunteers"
	KindProject      Kind = "projects"
	KindReport       Kind = "reports"
	KindAttendance   Kind = "attendance"
)

// Meta holds the columns every record shares.
type Meta struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	OwnerID        string    `json:"owner_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Base returns the shared columns of the record.
func (m *Meta) Base() *Meta { return m }

// Field binds a table column to a pointer into the record.
type Field struct {
	Column string
	Ptr    any
}

// Record is implemented by every managed entity.
type Record interface {
	Base() *Meta
	Kind() Kind
	Fields() []Field
	Validate() error
}

var registry = map[Kind]func() Record{
	KindOrganization: func() Record { return &Organization{} },
	KindDonor:        func() Record { return &Donor{} },
	KindEmployee:     func() Record { return &Employee{} },
	KindEvent:        func() Record { return &Event{} },
	KindBeneficiary:  func() Record { return &Beneficiary{} },
	KindVolunteer:    func() Record { return &Volunteer{} },
	KindProject:      func() Record { return &Project{} },
	KindReport:       func() Record { return &Report{} },
	KindAttendance:   func() Record { return &Attendance{} },
}

// New returns an empty record of kind.
func New(kind Kind) (Record, error) {
	ctor, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return ctor(), nil
}

// Reference is a column of one record that holds the id of another.
type Reference struct {
	Column string
	Kind   Kind
	ID     string
}

// Referrer is implemented by records that point at other records.
type Referrer interface {
	References() []Reference
}

// References returns the non-empty links held by r.
func References(r Record) []Reference {
	ref, ok := r.(Referrer)
	if !ok {
		return nil
	}
	var out []Reference
	for _, x := range ref.References() {
		if x.ID != "" {
			out = append(out, x)
		}
	}
	return out
}

// Kinds returns every registered kind in lexical order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Columns returns the record-specific column names of r in declaration order.
func Columns(r Record) []string {
	fields := r.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
	}
	return cols
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}
