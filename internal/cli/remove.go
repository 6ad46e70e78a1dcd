package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/homenest/internal/view"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove one of your properties",
		Long:  "Delete a property you own.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id := args[0]
	p, err := a.ownedProperty(cmd.Context(), id, view.ActionDelete)
	if err != nil {
		return err
	}

	if err := a.api.DeleteProperty(cmd.Context(), id); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, map[string]interface{}{
			"id":      id,
			"removed": true,
		})
	}

	fmt.Fprintf(out, "Property %q removed.\n", p.Name)
	return nil
}
