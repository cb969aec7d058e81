package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/shepherd/internal/followup"
)

func newAddCmd() *cobra.Command {
	var f followUpFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new follow-up",
		Long: `Record a follow-up for a member and assign it to someone.

Example:
  shep add --member <id> --assignee-id pastor-1 --assignee "Pastor Dan" --reason sick --due 2026-11-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in followup.Input
			if err := f.apply(cmd, &in); err != nil {
				return err
			}

			b, err := openBackend()
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			v, err := b.CreateFollowUp(cmd.Context(), in)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Follow-up recorded.")
			printFollowUp(cmd.OutOrStdout(), v)
			return nil
		},
	}

	f.register(cmd, true)
	return cmd
}

func newListCmd() *cobra.Command {
	var (
		filter   followup.Filter
		status   string
		priority string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List follow-ups",
		Long:  "List follow-ups sorted by status then due date, optionally filtered.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Status = followup.Status(upper(status))
			filter.Priority = followup.Priority(upper(priority))

			b, err := openBackend()
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			res, err := b.ListFollowUps(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return printFollowUpTable(cmd.OutOrStdout(), res, filter.Skip)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&filter.Search, "search", "", "match assignee, notes or member name")
	fl.StringVar(&status, "status", "", "only this status")
	fl.StringVar(&priority, "priority", "", "only this priority")
	fl.StringVar(&filter.AssignedToID, "assignee-id", "", "only follow-ups assigned to this ID")
	fl.StringVar(&filter.MemberID, "member", "", "only follow-ups for this member ID")
	fl.BoolVar(&filter.Overdue, "overdue", false, "only overdue follow-ups")
	fl.IntVar(&filter.Skip, "skip", 0, "rows to skip")
	fl.IntVar(&filter.Take, "take", followup.DefaultTake, "rows to show")

	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show follow-up details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend()
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			v, err := b.GetFollowUp(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			printFollowUp(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newUpdateCmd() *cobra.Command {
	var f followUpFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a follow-up",
		Long:  "Change any writable field of a follow-up. Fields without a flag keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], func(in *followup.Input) error {
				return f.apply(cmd, in)
			})
		},
	}

	f.register(cmd, false)
	return cmd
}

func newCompleteCmd() *cobra.Command {
	var f followUpFlags

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a follow-up completed",
		Long:  "Mark a follow-up completed, optionally recording the outcome and when to follow up again.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], func(in *followup.Input) error {
				if err := f.apply(cmd, in); err != nil {
					return err
				}
				in.Status = followup.StatusCompleted
				return nil
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.outcome, "outcome", "", "outcome of the follow-up")
	fl.StringVar(&f.followUpNotes, "follow-up-notes", "", "notes from the follow-up itself")
	fl.StringVar(&f.method, "method", "", "how the member was reached")
	fl.StringVar(&f.completedAt, "completed-at", "", "completion time (default now)")
	fl.StringVar(&f.next, "next", "", "date of the next follow-up (YYYY-MM-DD)")

	return cmd
}

// runEdit loads follow-up id, lets edit change it and saves the result.
func runEdit(cmd *cobra.Command, id string, edit func(in *followup.Input) error) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer closeBackend(cmd, b)

	ctx := cmd.Context()
	current, err := b.GetFollowUp(ctx, id)
	if err != nil {
		return err
	}

	in := followup.InputFrom(current.FollowUp)
	if err := edit(&in); err != nil {
		return err
	}

	v, err := b.UpdateFollowUp(ctx, id, in)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), v)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Follow-up updated.")
	printFollowUp(cmd.OutOrStdout(), v)
	return nil
}

func newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next <id>",
		Short: "Schedule the follow-up a completed one asked for",
		Long:  "Create a pending follow-up for the same member and assignee, due on the next follow-up date of <id>.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend()
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			v, err := b.ScheduleNext(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Next follow-up scheduled.")
			printFollowUp(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a follow-up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend()
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			id := args[0]
			if err := b.DeleteFollowUp(cmd.Context(), id); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"id":      id,
					"removed": true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Follow-up %s removed.\n", id)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show follow-up counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend()
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			st, err := b.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), st)
			}
			printStats(cmd.OutOrStdout(), st)
			return nil
		},
	}
}
