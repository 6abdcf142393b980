package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"newsletter/app"
	"newsletter/models"
	"newsletter/recovery"
	"newsletter/store"
	"newsletter/utils"
)

const timeLayout = "2006-01-02 15:04"

func newListCmd(open opener) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rejected emails, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				limit = 50
			}
			return withApp(open, func(a *app.App) error {
				rows, total, err := a.Store.ListRejectedPage(cmd.Context(), store.RejectedFilter{Page: 1, Limit: limit})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if total == 0 {
					fmt.Fprintln(out, "No rejected emails.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tEMAIL\tREASON\tSUBMITTED\tIP")
				for _, r := range rows {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Email, r.RejectionReason, r.SubmittedAt.Format(timeLayout), r.IPAddress)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "\nShowing %d of %d rejected emails.\n", len(rows), total)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to show")
	return cmd
}

func newStatsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count rejected emails by reason",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, func(a *app.App) error {
				stats, err := a.Store.RejectionStats(cmd.Context())
				if err != nil {
					return err
				}
				return printStats(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func printStats(out io.Writer, stats []models.ReasonCount) error {
	if len(stats) == 0 {
		fmt.Fprintln(out, "No rejected emails.")
		return nil
	}
	var total int64
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REASON\tCOUNT")
	for _, s := range stats {
		total += s.Count
		fmt.Fprintf(w, "%s\t%d\n", s.Reason, s.Count)
	}
	fmt.Fprintf(w, "TOTAL\t%d\n", total)
	return w.Flush()
}

func newRevalidateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "revalidate",
		Short: "Dry run: show which rejected emails would now pass validation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, func(a *app.App) error {
				rows, err := a.Recovery.Revalidate(cmd.Context())
				if err != nil {
					return err
				}
				return printRevalidation(cmd.OutOrStdout(), rows)
			})
		},
	}
}

func printRevalidation(out io.Writer, rows []recovery.RevalidationRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No rejected emails.")
		return nil
	}
	valid := 0
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tOLD REASON\tSTATUS\tSCORE")
	for _, r := range rows {
		email := r.OriginalEmail
		if r.CorrectedEmail != "" && r.CorrectedEmail != r.OriginalEmail {
			email = fmt.Sprintf("%s -> %s", r.OriginalEmail, r.CorrectedEmail)
		}
		status := "VALID"
		if r.NowValid {
			valid++
		} else {
			status = "INVALID: " + r.NewReason
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", r.ID, email, r.OldReason, status, r.Score)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d of %d rejected emails would now pass validation.\n", valid, len(rows))
	return nil
}

func newRecoverAllCmd(open opener) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "recover-all",
		Short: "Recover every rejected email that now passes validation",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes && !confirm(cmd.InOrStdin(), out, "Recover all rejected emails that now pass validation? [y/N]: ") {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
			return withApp(open, func(a *app.App) error {
				result, err := a.Recovery.RecoverAll(cmd.Context())
				if err != nil {
					return err
				}
				for _, item := range result.Items {
					if item.Outcome == recovery.OutcomeError {
						fmt.Fprintf(out, "  error  %s: %s\n", item.OriginalEmail, item.Error)
					}
				}
				fmt.Fprintf(out, "Recovered: %d\nAlready subscribed: %d\nFailed: %d\n",
					result.Recovered, result.AlreadySubscribed, result.Failed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func newRecoverIDsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "recover-ids ID [ID...]",
		Short: "Recover rejected emails by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uint, 0, len(args))
			for _, arg := range args {
				id := utils.ParseUint(arg)
				if id == 0 {
					return fmt.Errorf("invalid id %q", arg)
				}
				ids = append(ids, id)
			}
			return withApp(open, func(a *app.App) error {
				result, err := a.Recovery.RecoverByIDs(cmd.Context(), ids)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tEMAIL\tOUTCOME\tDETAIL")
				for _, item := range result.Items {
					detail := item.Reason
					if item.Error != "" {
						detail = item.Error
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", item.ID, item.Email, item.Outcome, detail)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "\nRecovered: %d\nAlready subscribed: %d\nFailed: %d\nNot found: %d\n",
					result.Recovered, result.AlreadySubscribed, result.Failed, result.NotFound)
				return nil
			})
		},
	}
}

func newRecoverEmailCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "recover-email EMAIL",
		Short: "Recover a single rejected email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, func(a *app.App) error {
				item, err := a.Recovery.RecoverSingle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch item.Outcome {
				case recovery.OutcomeRecovered:
					fmt.Fprintf(out, "Recovered %s (score %d)\n", item.Email, item.Score)
				case recovery.OutcomeAlreadySubscribed:
					fmt.Fprintf(out, "%s is already subscribed; rejected entry removed\n", item.Email)
				case recovery.OutcomeStillInvalid:
					return fmt.Errorf("%s still fails validation: %s", item.Email, item.Reason)
				case recovery.OutcomeNotFound:
					return fmt.Errorf("%s not found in rejected emails", item.OriginalEmail)
				}
				return nil
			})
		},
	}
}

func newCreateAdminCmd(open opener) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "create-admin USERNAME",
		Short: "Create an admin user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			if len(password) < 8 {
				return errors.New("password must be at least 8 characters (use --password or ADMIN_PASSWORD)")
			}
			return withApp(open, func(a *app.App) error {
				admin := &models.AdminUser{Username: strings.TrimSpace(args[0])}
				if err := admin.SetPassword(password); err != nil {
					return fmt.Errorf("hash password: %w", err)
				}
				if err := a.Store.CreateAdmin(cmd.Context(), admin); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %q created (id %d)\n", admin.Username, admin.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "admin password (default $ADMIN_PASSWORD)")
	return cmd
}
