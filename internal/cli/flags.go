package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/shepherd/internal/followup"
	"github.com/evcraddock/shepherd/internal/validate"
)

// followUpFlags are the writable follow-up fields shared by add and update.
type followUpFlags struct {
	member           string
	assigneeID       string
	assignee         string
	reason           string
	reasonOther      string
	priority         string
	method           string
	status           string
	due              string
	completedAt      string
	notes            string
	followUpNotes    string
	outcome          string
	next             string
	requiresFollowUp bool
}

// register adds the flags to cmd. The member flag is only offered on create
// since a follow-up's member never changes.
func (f *followUpFlags) register(cmd *cobra.Command, withMember bool) {
	fl := cmd.Flags()
	if withMember {
		fl.StringVar(&f.member, "member", "", "member ID (required)")
	}
	fl.StringVar(&f.assigneeID, "assignee-id", "", "ID of the person responsible")
	fl.StringVar(&f.assignee, "assignee", "", "name of the person responsible")
	fl.StringVar(&f.reason, "reason", "", "reason: "+joinValues(followup.AllReasons))
	fl.StringVar(&f.reasonOther, "reason-other", "", "description when --reason is OTHER")
	fl.StringVar(&f.priority, "priority", "", "priority: "+joinValues(followup.AllPriorities)+" (default NORMAL)")
	fl.StringVar(&f.method, "method", "", "contact method: "+joinValues(followup.AllMethods))
	fl.StringVar(&f.status, "status", "", "status: "+joinValues(followup.AllStatuses)+" (default PENDING)")
	fl.StringVar(&f.due, "due", "", "due date (YYYY-MM-DD)")
	fl.StringVar(&f.completedAt, "completed-at", "", "completion time (YYYY-MM-DD or RFC 3339; default now when completing)")
	fl.StringVar(&f.notes, "notes", "", "initial notes")
	fl.StringVar(&f.followUpNotes, "follow-up-notes", "", "notes from the follow-up itself")
	fl.StringVar(&f.outcome, "outcome", "", "outcome of the follow-up")
	fl.BoolVar(&f.requiresFollowUp, "requires-follow-up", false, "another follow-up is needed")
	fl.StringVar(&f.next, "next", "", "date of the next follow-up (YYYY-MM-DD); implies --requires-follow-up")
}

// apply copies every flag the user set onto in.
func (f *followUpFlags) apply(cmd *cobra.Command, in *followup.Input) error {
	changed := cmd.Flags().Changed

	if changed("member") {
		in.MemberID = f.member
	}
	if changed("assignee-id") {
		in.AssignedToID = f.assigneeID
	}
	if changed("assignee") {
		in.AssignedToName = f.assignee
	}
	if changed("reason") {
		in.Reason = followup.Reason(upper(f.reason))
	}
	if changed("reason-other") {
		in.ReasonOther = f.reasonOther
	}
	if changed("priority") {
		in.Priority = followup.Priority(upper(f.priority))
	}
	if changed("method") {
		in.Method = followup.Method(upper(f.method))
	}
	if changed("status") {
		in.Status = followup.Status(upper(f.status))
	}
	if changed("notes") {
		in.InitialNotes = f.notes
	}
	if changed("follow-up-notes") {
		in.FollowUpNotes = f.followUpNotes
	}
	if changed("outcome") {
		in.Outcome = f.outcome
	}
	if changed("requires-follow-up") {
		in.RequiresFollowUp = f.requiresFollowUp
	}

	if changed("due") {
		t, err := parseDateFlag("due_date", f.due)
		if err != nil {
			return err
		}
		in.DueDate = t
	}
	// completed_at is only sent when given, so the server decides when to stamp it.
	in.CompletedAt = nil
	if changed("completed-at") {
		t, err := parseDateFlag("completed_at", f.completedAt)
		if err != nil {
			return err
		}
		in.CompletedAt = &t
	}
	if changed("next") {
		t, err := parseDateFlag("next_follow_up_date", f.next)
		if err != nil {
			return err
		}
		in.NextFollowUpDate = &t
		in.RequiresFollowUp = true
	}

	return nil
}

func parseDateFlag(field, s string) (time.Time, error) {
	t, err := followup.ParseDate(s)
	if err != nil {
		return time.Time{}, validate.Field(field, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	return t, nil
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func joinValues[T ~string](values []T) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = string(v)
	}
	return strings.Join(s, ", ")
}
