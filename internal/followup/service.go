package followup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/shepherd/internal/member"
	"github.com/evcraddock/shepherd/internal/validate"
)

// DefaultTake is the page size used when a filter does not set one.
const DefaultTake = 50

// Clock returns the current instant.
type Clock func() time.Time

// MemberLookup resolves the member a follow-up refers to.
type MemberLookup interface {
	GetByID(ctx context.Context, id string) (*member.Member, error)
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock, for deterministic overdue checks.
func WithClock(c Clock) Option {
	return func(s *Service) {
		s.now = c
	}
}

// Service applies the follow-up lifecycle rules on top of the repository.
type Service struct {
	repo    *Repository
	members MemberLookup
	now     Clock
}

// NewService creates a follow-up service.
func NewService(repo *Repository, members MemberLookup, opts ...Option) *Service {
	s := &Service{repo: repo, members: members, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock reads the injected clock at storage precision.
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// Filter narrows a List call. Zero values mean "no constraint".
type Filter struct {
	Search       string
	Status       Status
	Priority     Priority
	AssignedToID string
	MemberID     string
	Overdue      bool
	Skip         int
	Take         int
}

// ListResult is one page of follow-ups plus the unpaginated match count.
type ListResult struct {
	Items []*View `json:"items"`
	Total int     `json:"total"`
}

// Stats are dashboard counts over every follow-up.
type Stats struct {
	Total      int `json:"total_follow_ups"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}

// Create validates in and stores a new follow-up.
func (s *Service) Create(ctx context.Context, in Input) (*View, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	m, err := s.members.GetByID(ctx, in.MemberID)
	if errors.Is(err, member.ErrNotFound) {
		return nil, validate.Field("member_id", "does not match a member")
	}
	if err != nil {
		return nil, storeErr("looking up member", err)
	}

	now := s.clock()
	f := &FollowUp{
		ID:         uuid.NewString(),
		MemberID:   in.MemberID,
		MemberName: m.FullName(),
		CreatedAt:  now,
	}
	apply(f, in, now)

	if err := s.repo.Insert(ctx, f); err != nil {
		slog.Error("FollowUp create failed", "error", err, "member_id", f.MemberID)
		return nil, err
	}

	slog.Debug("FollowUp created", "id", f.ID, "member_id", f.MemberID, "status", f.Status)
	return s.view(f, now), nil
}

// Get returns a follow-up by ID.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(f, s.clock()), nil
}

// Update validates in and replaces the writable fields of follow-up id.
// Setting status to COMPLETED without completed_at stamps the current time;
// an explicit completed_at is kept as given. Other statuses leave
// completed_at alone.
func (s *Service) Update(ctx context.Context, id string, in Input) (*View, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.MemberID != existing.MemberID {
		return nil, validate.Field("member_id", "cannot be changed")
	}

	now := s.clock()
	f := *existing
	if in.CompletedAt == nil && in.Status == StatusCompleted && existing.Status == StatusCompleted {
		// Already completed: keep the first completion time.
		in.CompletedAt = existing.CompletedAt
	}
	apply(&f, in, now)

	if err := s.repo.Update(ctx, &f); err != nil {
		slog.Error("FollowUp update failed", "error", err, "id", id)
		return nil, err
	}

	slog.Debug("FollowUp updated", "id", id, "status", f.Status)
	return s.view(&f, now), nil
}

// apply copies in onto f and stamps timestamps. completed_at is set to now
// when the status is COMPLETED and no time was supplied.
func apply(f *FollowUp, in Input, now time.Time) {
	f.AssignedToID = in.AssignedToID
	f.AssignedToName = in.AssignedToName
	f.Reason = in.Reason
	f.ReasonOther = in.ReasonOther
	f.Priority = in.Priority
	f.Method = in.Method
	f.Status = in.Status
	f.DueDate = in.DueDate
	f.InitialNotes = in.InitialNotes
	f.FollowUpNotes = in.FollowUpNotes
	f.Outcome = in.Outcome
	f.RequiresFollowUp = in.RequiresFollowUp
	f.NextFollowUpDate = in.NextFollowUpDate
	f.UpdatedAt = now

	switch {
	case in.CompletedAt != nil:
		f.CompletedAt = in.CompletedAt
	case in.Status == StatusCompleted:
		stamped := now
		f.CompletedAt = &stamped
	}
}

// Delete hard-deletes a follow-up.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("FollowUp deleted", "id", id)
	return nil
}

// ScheduleNext creates the follow-up a completed one asked for: same member,
// assignee and reason, due on its next_follow_up_date, linked back through
// previous_id. The source stops requiring a follow-up.
func (s *Service) ScheduleNext(ctx context.Context, id string) (*View, error) {
	prev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !prev.RequiresFollowUp {
		return nil, validate.Field("requires_follow_up", "is not set")
	}
	if prev.NextFollowUpDate == nil {
		return nil, validate.Field("next_follow_up_date", "is required")
	}

	now := s.clock()
	next := &FollowUp{
		ID:             uuid.NewString(),
		MemberID:       prev.MemberID,
		MemberName:     prev.MemberName,
		AssignedToID:   prev.AssignedToID,
		AssignedToName: prev.AssignedToName,
		Reason:         prev.Reason,
		ReasonOther:    prev.ReasonOther,
		Priority:       prev.Priority,
		Method:         prev.Method,
		Status:         StatusPending,
		DueDate:        *prev.NextFollowUpDate,
		InitialNotes:   prev.Outcome,
		PreviousID:     prev.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.InsertNext(ctx, next, now); err != nil {
		slog.Error("FollowUp schedule next failed", "error", err, "previous_id", id)
		return nil, err
	}

	slog.Debug("FollowUp scheduled", "id", next.ID, "previous_id", id, "due_date", next.DueDate)
	return s.view(next, now), nil
}

// List returns one page of follow-ups matching f and the total match count.
func (s *Service) List(ctx context.Context, f Filter) (*ListResult, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, validate.Field("status", "is not a known status")
	}
	if f.Priority != "" && !f.Priority.IsValid() {
		return nil, validate.Field("priority", "is not a known priority")
	}
	if f.Take <= 0 {
		f.Take = DefaultTake
	}
	if f.Skip < 0 {
		f.Skip = 0
	}

	now := s.clock()
	items, err := s.repo.List(ctx, f, now)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, f, now)
	if err != nil {
		return nil, err
	}

	res := &ListResult{Items: make([]*View, 0, len(items)), Total: total}
	for _, it := range items {
		res.Items = append(res.Items, s.view(it, now))
	}
	return res, nil
}

// Stats counts follow-ups by status and overdue state. All counts share one
// instant so overdue agrees with pending and in-progress.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.clock()

	var st Stats
	counts := []struct {
		filter Filter
		dst    *int
	}{
		{Filter{}, &st.Total},
		{Filter{Status: StatusPending}, &st.Pending},
		{Filter{Status: StatusInProgress}, &st.InProgress},
		{Filter{Status: StatusCompleted}, &st.Completed},
		{Filter{Overdue: true}, &st.Overdue},
	}

	for _, c := range counts {
		n, err := s.repo.Count(ctx, c.filter, now)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	return &st, nil
}

func (s *Service) view(f *FollowUp, now time.Time) *View {
	v := NewView(f, now)
	return &v
}
