package cmd

import (
	"github.com/spf13/cobra"
)

var version = "dev"

// NewRootCmd creates the paywidget command. Without a subcommand it serves
// the widget.
func NewRootCmd(v string) *cobra.Command {
	version = v

	root := &cobra.Command{
		Use:           "paywidget",
		Short:         "Ludens payment checkout widget",
		Long:          "paywidget serves the Ludens checkout page for tokens and Premium subscriptions.",
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newPlansCmd())
	root.AddCommand(newVersionCmd())

	root.PersistentFlags().StringSlice("env-file", nil, "dotenv files to load before reading the environment")

	return root
}
