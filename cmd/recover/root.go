package main

import (
	"github.com/spf13/cobra"

	"newsletter/app"
)

type opener func() (*app.App, error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "recover",
		Short:         "Inspect and recover rejected newsletter signups",
		Long:          `Re-runs email validation over the rejected list and moves addresses that now pass into the subscriber table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newListCmd(open),
		newStatsCmd(open),
		newRevalidateCmd(open),
		newRecoverAllCmd(open),
		newRecoverIDsCmd(open),
		newRecoverEmailCmd(open),
		newCreateAdminCmd(open),
	)
	return root
}

// withApp opens the application for the duration of fn.
func withApp(open opener, fn func(a *app.App) error) error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
