// Package cli defines the cobra command tree for homenest.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/homenest/internal/logging"
)

var (
	flagFormat  string
	flagStore   string
	flagVerbose bool
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hn",
		Short:         "Browse, list and review rental and sale properties",
		Long:          "A command-line client for HomeNest. Browse listings, publish and manage your own, and rate the ones you have seen.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(flagVerbose)
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagStore, "store", "", "local session store path (default: ~/.homenest/local.db)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log requests and session transitions to stderr")

	root.AddCommand(
		newRegisterCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newListCmd(),
		newFeaturedCmd(),
		newShowCmd(),
		newAddCmd(),
		newUpdateCmd(),
		newRemoveCmd(),
		newMineCmd(),
		newRateCmd(),
		newRatingsCmd(),
		newMyRatingsCmd(),
		newUnrateCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
