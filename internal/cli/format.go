package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/evcraddock/shepherd/internal/followup"
	"github.com/evcraddock/shepherd/internal/member"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printFollowUp prints a single follow-up in text format.
func printFollowUp(w io.Writer, v *followup.View) {
	fmt.Fprintf(w, "Follow-up %s\n", v.ID)
	fmt.Fprintf(w, "  Member:    %s\n", orDash(v.MemberName))
	fmt.Fprintf(w, "  Assigned:  %s\n", v.AssignedToName)
	fmt.Fprintf(w, "  Reason:    %s\n", reasonText(v.FollowUp))
	fmt.Fprintf(w, "  Priority:  %s\n", v.Priority.Label())
	fmt.Fprintf(w, "  Method:    %s\n", orDash(v.Method.Label()))
	fmt.Fprintf(w, "  Status:    %s\n", statusText(v))
	fmt.Fprintf(w, "  Due:       %s\n", formatDate(v.DueDate))
	if v.CompletedAt != nil {
		fmt.Fprintf(w, "  Completed: %s\n", formatTimestamp(*v.CompletedAt))
	}
	if v.RequiresFollowUp {
		next := "-"
		if v.NextFollowUpDate != nil {
			next = formatDate(*v.NextFollowUpDate)
		}
		fmt.Fprintf(w, "  Next due:  %s\n", next)
	}
	if v.PreviousID != "" {
		fmt.Fprintf(w, "  Previous:  %s\n", v.PreviousID)
	}
	printNote(w, "Initial notes", v.InitialNotes)
	printNote(w, "Follow-up notes", v.FollowUpNotes)
	printNote(w, "Outcome", v.Outcome)
}

func printNote(w io.Writer, label, text string) {
	if text == "" {
		return
	}
	fmt.Fprintf(w, "\n%s:\n  %s\n", label, text)
}

// printFollowUpTable prints a page of follow-ups as a formatted table.
func printFollowUpTable(out io.Writer, res *followup.ListResult, skip int) error {
	if len(res.Items) == 0 {
		fmt.Fprintln(out, "No follow-ups found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tMEMBER\tREASON\tPRIORITY\tSTATUS\tDUE\tASSIGNED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t------\t------\t--------\t------\t---\t--------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, v := range res.Items {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, truncate(v.MemberName, 24), truncate(reasonText(v.FollowUp), 24),
			v.Priority.Label(), statusText(v), formatDate(v.DueDate), truncate(v.AssignedToName, 20)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	if skip < 0 {
		skip = 0
	}
	fmt.Fprintf(out, "\nShowing %d-%d of %d follow-ups\n", skip+1, skip+len(res.Items), res.Total)
	return nil
}

// printStats prints dashboard counts.
func printStats(w io.Writer, st *followup.Stats) {
	fmt.Fprintf(w, "Total:        %d\n", st.Total)
	fmt.Fprintf(w, "Pending:      %d\n", st.Pending)
	fmt.Fprintf(w, "In progress:  %d\n", st.InProgress)
	fmt.Fprintf(w, "Completed:    %d\n", st.Completed)
	fmt.Fprintf(w, "Overdue:      %d\n", st.Overdue)
}

// printMemberTable prints members as a formatted table.
func printMemberTable(out io.Writer, members []*member.Member) error {
	if len(members) == 0 {
		fmt.Fprintln(out, "No members found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, m := range members {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, m.FullName(), orDash(m.Email), orDash(m.Phone)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %d members\n", len(members))
	return nil
}

// printMember prints a single member in text format.
func printMember(w io.Writer, m *member.Member) {
	fmt.Fprintf(w, "Member %s\n", m.ID)
	fmt.Fprintf(w, "  Name:   %s\n", m.FullName())
	fmt.Fprintf(w, "  Email:  %s\n", orDash(m.Email))
	fmt.Fprintf(w, "  Phone:  %s\n", orDash(m.Phone))
}

// reasonText is the reason label, or the free text for OTHER.
func reasonText(f *followup.FollowUp) string {
	if f.Reason == followup.ReasonOther && f.ReasonOther != "" {
		return f.ReasonOther
	}
	return f.Reason.Label()
}

// statusText is the status label, flagged when overdue.
func statusText(v *followup.View) string {
	if v.IsOverdue {
		return v.Status.Label() + " (overdue)"
	}
	return v.Status.Label()
}

func formatDate(t time.Time) string {
	return t.UTC().Format(followup.DateLayout)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
