package ngo

import (
	"net/mail"
	"strings"
	"time"
)

// Organization is an NGO that owns the other records.
type Organization struct {
	Meta
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (*Organization) Kind() Kind { return KindOrganization }

func (o *Organization) Fields() []Field {
	return []Field{{"name", &o.Name}, {"description", &o.Description}}
}

func (o *Organization) Validate() error {
	return requireText("name", o.Name, 200)
}

// Donor is a person or company giving money or goods.
type Donor struct {
	Meta
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	TotalDonated int64  `json:"total_donated"`
}

func (*Donor) Kind() Kind { return KindDonor }

func (d *Donor) Fields() []Field {
	return []Field{{"name", &d.Name}, {"email", &d.Email}, {"phone", &d.Phone}, {"total_donated", &d.TotalDonated}}
}

func (d *Donor) Validate() error {
	if err := requireText("name", d.Name, 200); err != nil {
		return err
	}
	if err := optionalEmail(d.Email); err != nil {
		return err
	}
	if d.TotalDonated < 0 {
		return invalid("total_donated must be >= 0")
	}
	return nil
}

// Beneficiary is a person the organization supports.
type Beneficiary struct {
	Meta
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Needs string `json:"needs"`
}

func (*Beneficiary) Kind() Kind { return KindBeneficiary }

func (b *Beneficiary) Fields() []Field {
	return []Field{{"name", &b.Name}, {"age", &b.Age}, {"needs", &b.Needs}}
}

func (b *Beneficiary) Validate() error {
	if err := requireText("name", b.Name, 200); err != nil {
		return err
	}
	if b.Age < 0 || b.Age > 150 {
		return invalid("age must be between 0 and 150")
	}
	return nil
}

// Volunteer gives time to the organization.
type Volunteer struct {
	Meta
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Skills string `json:"skills"`
}

func (*Volunteer) Kind() Kind { return KindVolunteer }

func (v *Volunteer) Fields() []Field {
	return []Field{{"name", &v.Name}, {"email", &v.Email}, {"phone", &v.Phone}, {"skills", &v.Skills}}
}

func (v *Volunteer) Validate() error {
	if err := requireText("name", v.Name, 200); err != nil {
		return err
	}
	return optionalEmail(v.Email)
}

// Employee is paid staff of an organization.
type Employee struct {
	Meta
	Name       string `json:"name"`
	Email      string `json:"email"`
	Position   string `json:"position"`
	Department string `json:"department"`
}

func (*Employee) Kind() Kind { return KindEmployee }

func (e *Employee) Fields() []Field {
	return []Field{{"name", &e.Name}, {"email", &e.Email}, {"position", &e.Position}, {"department", &e.Department}}
}

func (e *Employee) Validate() error {
	if err := requireText("name", e.Name, 200); err != nil {
		return err
	}
	if err := requireText("position", e.Position, 200); err != nil {
		return err
	}
	return optionalEmail(e.Email)
}

// Event is a scheduled activity.
type Event struct {
	Meta
	Title    string    `json:"title"`
	Location string    `json:"location"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

func (*Event) Kind() Kind { return KindEvent }

func (e *Event) Fields() []Field {
	return []Field{{"title", &e.Title}, {"location", &e.Location}, {"starts_at", &e.StartsAt}, {"ends_at", &e.EndsAt}}
}

func (e *Event) Validate() error {
	if err := requireText("title", e.Title, 200); err != nil {
		return err
	}
	if e.StartsAt.IsZero() {
		return invalid("starts_at is required")
	}
	if !e.EndsAt.IsZero() && e.EndsAt.Before(e.StartsAt) {
		return invalid("ends_at precedes starts_at")
	}
	return nil
}

// Project statuses.
const (
	ProjectPlanned   = "planned"
	ProjectActive    = "active"
	ProjectCompleted = "completed"
)

// Project is a funded piece of work.
type Project struct {
	Meta
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Budget      int64  `json:"budget"`
}

func (*Project) Kind() Kind { return KindProject }

func (p *Project) Fields() []Field {
	return []Field{{"name", &p.Name}, {"description", &p.Description}, {"status", &p.Status}, {"budget", &p.Budget}}
}

func (p *Project) Validate() error {
	if err := requireText("name", p.Name, 200); err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = ProjectPlanned
	}
	switch p.Status {
	case ProjectPlanned, ProjectActive, ProjectCompleted:
	default:
		return invalid("status must be one of planned, active, completed")
	}
	if p.Budget < 0 {
		return invalid("budget must be >= 0")
	}
	return nil
}

// Report is a written account filed by an organization.
type Report struct {
	Meta
	Title     string `json:"title"`
	Body      string `json:"body"`
	ProjectID string `json:"project_id"`
}

func (*Report) Kind() Kind { return KindReport }

func (r *Report) Fields() []Field {
	return []Field{{"title", &r.Title}, {"body", &r.Body}, {"project_id", &r.ProjectID}}
}

func (r *Report) References() []Reference {
	return []Reference{{Column: "project_id", Kind: KindProject, ID: strings.TrimSpace(r.ProjectID)}}
}

func (r *Report) Validate() error {
	return requireText("title", r.Title, 200)
}

// Attendance statuses.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceExcused = "excused"
)

// Attendance records whether a participant came to an event.
type Attendance struct {
	Meta
	EventID         string `json:"event_id"`
	ParticipantName string `json:"participant_name"`
	Status          string `json:"status"`
}

func (*Attendance) Kind() Kind { return KindAttendance }

func (a *Attendance) Fields() []Field {
	return []Field{{"event_id", &a.EventID}, {"participant_name", &a.ParticipantName}, {"status", &a.Status}}
}

func (a *Attendance) References() []Reference {
	return []Reference{{Column: "event_id", Kind: KindEvent, ID: strings.TrimSpace(a.EventID)}}
}

func (a *Attendance) Validate() error {
	if strings.TrimSpace(a.EventID) == "" {
		return invalid("event_id is required")
	}
	if err := requireText("participant_name", a.ParticipantName, 200); err != nil {
		return err
	}
	switch a.Status {
	case AttendancePresent, AttendanceAbsent, AttendanceExcused:
	default:
		return invalid("status must be one of present, absent, excused")
	}
	return nil
}

func requireText(field, v string, max int) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return invalid("%s is required", field)
	}
	if len(v) > max {
		return invalid("%s is too long", field)
	}
	return nil
}

func optionalEmail(v string) error {
	if v == "" {
		return nil
	}
	if _, err := mail.ParseAddress(v); err != nil {
		return invalid("email is not valid")
	}
	return nil
}
