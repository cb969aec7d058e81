package followup

import (
	"strings"
	"time"

	"github.com/evcraddock/shepherd/internal/validate"
)

// Input carries every writable field of a follow-up, for create and update alike.
// Field order is the order validation reports failures in.
type Input struct {
	MemberID         string     `json:"member_id" validate:"required"`
	AssignedToID     string     `json:"assigned_to_id" validate:"required"`
	AssignedToName   string     `json:"assigned_to_name" validate:"required,max=200"`
	Reason           Reason     `json:"reason" validate:"required,oneof=NEW_VISITOR NEW_CONVERT ABSENT SICK PRAYER_REQUEST COUNSELING MEMBERSHIP BAPTISM OTHER"`
	ReasonOther      string     `json:"reason_other" validate:"required_if=Reason OTHER,max=200"`
	Priority         Priority   `json:"priority" validate:"oneof=LOW NORMAL HIGH URGENT"`
	Method           Method     `json:"method" validate:"omitempty,oneof=PHONE_CALL TEXT_MESSAGE WHATSAPP EMAIL HOME_VISIT CHURCH_VISIT"`
	Status           Status     `json:"status" validate:"oneof=PENDING IN_PROGRESS COMPLETED CANCELLED NO_RESPONSE"`
	DueDate          time.Time  `json:"due_date" validate:"required"`
	CompletedAt      *time.Time `json:"completed_at"`
	InitialNotes     string     `json:"initial_notes"`
	FollowUpNotes    string     `json:"follow_up_notes"`
	Outcome          string     `json:"outcome"`
	RequiresFollowUp bool       `json:"requires_follow_up"`
	NextFollowUpDate *time.Time `json:"next_follow_up_date"`
}

// normalize trims text, applies defaults and drops fields that only apply
// alongside another field.
func (in *Input) normalize() {
	in.MemberID = strings.TrimSpace(in.MemberID)
	in.AssignedToID = strings.TrimSpace(in.AssignedToID)
	in.AssignedToName = strings.TrimSpace(in.AssignedToName)
	in.ReasonOther = strings.TrimSpace(in.ReasonOther)
	in.InitialNotes = strings.TrimSpace(in.InitialNotes)
	in.FollowUpNotes = strings.TrimSpace(in.FollowUpNotes)
	in.Outcome = strings.TrimSpace(in.Outcome)

	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
	if in.Status == "" {
		in.Status = StatusPending
	}
	if in.Reason != ReasonOther {
		in.ReasonOther = ""
	}

	in.DueDate = normalizeTime(in.DueDate)
	in.CompletedAt = normalizeTimePtr(in.CompletedAt)
	in.NextFollowUpDate = normalizeTimePtr(in.NextFollowUpDate)
	if !in.RequiresFollowUp {
		in.NextFollowUpDate = nil
	}
}

// validate normalizes in and checks it, failing on the first bad field.
func (in *Input) validate() error {
	in.normalize()
	if err := validate.Struct(in); err != nil {
		return err
	}

	dates := []struct {
		field string
		t     *time.Time
	}{
		{"due_date", &in.DueDate},
		{"completed_at", in.CompletedAt},
		{"next_follow_up_date", in.NextFollowUpDate},
	}
	for _, d := range dates {
		if err := storableYear(d.field, d.t); err != nil {
			return err
		}
	}
	return nil
}

// storableYear rejects dates whose year does not have four digits. Stored
// dates are compared as text.
func storableYear(field string, t *time.Time) error {
	if t == nil {
		return nil
	}
	if y := t.Year(); y < 1 || y > 9999 {
		return validate.Field(field, "must have a year between 1 and 9999")
	}
	return nil
}

func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Second)
}

func normalizeTimePtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	n := normalizeTime(*t)
	return &n
}

// DateLayout is the date-only format accepted for due dates.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD (midnight UTC) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Form is the wire shape of Input: dates travel as strings so clients can
// send plain YYYY-MM-DD values.
type Form struct {
	MemberID         string `json:"member_id"`
	AssignedToID     string `json:"assigned_to_id"`
	AssignedToName   string `json:"assigned_to_name"`
	Reason           string `json:"reason"`
	ReasonOther      string `json:"reason_other,omitempty"`
	Priority         string `json:"priority,omitempty"`
	Method           string `json:"method,omitempty"`
	Status           string `json:"status,omitempty"`
	DueDate          string `json:"due_date"`
	CompletedAt      string `json:"completed_at,omitempty"`
	InitialNotes     string `json:"initial_notes,omitempty"`
	FollowUpNotes    string `json:"follow_up_notes,omitempty"`
	Outcome          string `json:"outcome,omitempty"`
	RequiresFollowUp bool   `json:"requires_follow_up"`
	NextFollowUpDate string `json:"next_follow_up_date,omitempty"`
}

// Input converts the form, reporting unparseable dates as validation errors.
func (f Form) Input() (Input, error) {
	in := Input{
		MemberID:         f.MemberID,
		AssignedToID:     f.AssignedToID,
		AssignedToName:   f.AssignedToName,
		Reason:           Reason(strings.ToUpper(strings.TrimSpace(f.Reason))),
		ReasonOther:      f.ReasonOther,
		Priority:         Priority(strings.ToUpper(strings.TrimSpace(f.Priority))),
		Method:           Method(strings.ToUpper(strings.TrimSpace(f.Method))),
		Status:           Status(strings.ToUpper(strings.TrimSpace(f.Status))),
		InitialNotes:     f.InitialNotes,
		FollowUpNotes:    f.FollowUpNotes,
		Outcome:          f.Outcome,
		RequiresFollowUp: f.RequiresFollowUp,
	}

	if strings.TrimSpace(f.DueDate) != "" {
		t, err := ParseDate(f.DueDate)
		if err != nil {
			return Input{}, badDate("due_date")
		}
		in.DueDate = t
	}

	var err error
	if in.CompletedAt, err = optionalDate("completed_at", f.CompletedAt); err != nil {
		return Input{}, err
	}
	if in.NextFollowUpDate, err = optionalDate("next_follow_up_date", f.NextFollowUpDate); err != nil {
		return Input{}, err
	}

	return in, nil
}

// FormFrom renders in as a Form with RFC 3339 dates.
func FormFrom(in Input) Form {
	f := Form{
		MemberID:         in.MemberID,
		AssignedToID:     in.AssignedToID,
		AssignedToName:   in.AssignedToName,
		Reason:           string(in.Reason),
		ReasonOther:      in.ReasonOther,
		Priority:         string(in.Priority),
		Method:           string(in.Method),
		Status:           string(in.Status),
		InitialNotes:     in.InitialNotes,
		FollowUpNotes:    in.FollowUpNotes,
		Outcome:          in.Outcome,
		RequiresFollowUp: in.RequiresFollowUp,
	}
	if !in.DueDate.IsZero() {
		f.DueDate = in.DueDate.UTC().Format(time.RFC3339)
	}
	if in.CompletedAt != nil {
		f.CompletedAt = in.CompletedAt.UTC().Format(time.RFC3339)
	}
	if in.NextFollowUpDate != nil {
		f.NextFollowUpDate = in.NextFollowUpDate.UTC().Format(time.RFC3339)
	}
	return f
}

// InputFrom returns the writable fields of an existing follow-up, the
// starting point for a partial edit.
func InputFrom(f *FollowUp) Input {
	return Input{
		MemberID:         f.MemberID,
		AssignedToID:     f.AssignedToID,
		AssignedToName:   f.AssignedToName,
		Reason:           f.Reason,
		ReasonOther:      f.ReasonOther,
		Priority:         f.Priority,
		Method:           f.Method,
		Status:           f.Status,
		DueDate:          f.DueDate,
		CompletedAt:      f.CompletedAt,
		InitialNotes:     f.InitialNotes,
		FollowUpNotes:    f.FollowUpNotes,
		Outcome:          f.Outcome,
		RequiresFollowUp: f.RequiresFollowUp,
		NextFollowUpDate: f.NextFollowUpDate,
	}
}

func optionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, badDate(field)
	}
	return &t, nil
}

func badDate(field string) error {
	return validate.Field(field, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}
