package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/shepherd/internal/member"
)

func newMemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage the member directory",
	}

	cmd.AddCommand(
		newMemberAddCmd(),
		newMemberListCmd(),
		newMemberShowCmd(),
		newMemberRemoveCmd(),
	)

	return cmd
}

func newMemberAddCmd() *cobra.Command {
	var m member.Member

	cmd := &cobra.Command{
		Use:   "add <first name> <last name>",
		Short: "Add a member",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m.FirstName = args[0]
			m.LastName = strings.Join(args[1:], " ")

			b, err := openBackend()
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			added, err := b.AddMember(cmd.Context(), m)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), added)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Member added.")
			printMember(cmd.OutOrStdout(), added)
			return nil
		},
	}

	cmd.Flags().StringVar(&m.Email, "email", "", "email address")
	cmd.Flags().StringVar(&m.Phone, "phone", "", "phone number")

	return cmd
}

func newMemberListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [search]",
		Short: "List members",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var search string
			if len(args) == 1 {
				search = args[0]
			}

			b, err := openBackend()
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			members, err := b.ListMembers(cmd.Context(), search)
			if err != nil {
				return err
			}

			if isJSON() {
				if members == nil {
					members = []*member.Member{}
				}
				return printJSON(cmd.OutOrStdout(), members)
			}
			return printMemberTable(cmd.OutOrStdout(), members)
		},
	}
}

func newMemberShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend()
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			m, err := b.GetMember(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), m)
			}
			printMember(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

func newMemberRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a member and all their follow-ups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend()
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			id := args[0]
			if err := b.DeleteMember(cmd.Context(), id); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"id":      id,
					"removed": true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Member %s removed.\n", id)
			return nil
		},
	}
}
