package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/homenest/internal/property"
	"github.com/evcraddock/homenest/internal/view"
)

func newUpdateCmd() *cobra.Command {
	var f propertyFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update one of your properties",
		Long:  "Change fields of a property you own. Only the flags given are changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, args[0], &f)
		},
	}

	f.bind(cmd)
	return cmd
}

func runUpdate(cmd *cobra.Command, id string, f *propertyFlags) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.ownedProperty(cmd.Context(), id, view.ActionEdit)
	if err != nil {
		return err
	}

	d := property.DraftFrom(p)
	if err := f.apply(cmd, &d); err != nil {
		return err
	}
	d.Normalize()
	if err := d.Validate(); err != nil {
		return err
	}

	if err := a.api.UpdateProperty(cmd.Context(), id, d); err != nil {
		return fmt.Errorf("updating property: %w", err)
	}

	updated, err := a.api.GetProperty(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, updated)
	}
	fmt.Fprintln(out, "Property updated.")
	printPropertySummary(out, updated)
	return nil
}

// ownedProperty fetches listing id and checks the signed-in user may
// perform action on it.
func (a *app) ownedProperty(ctx context.Context, id string, action view.Action) (*property.Property, error) {
	viewer, err := a.requireIdentity()
	if err != nil {
		return nil, err
	}

	p, err := a.api.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if !view.Allowed(view.ActionsFor(p, viewer), action) {
		return nil, fmt.Errorf("you can only %s your own properties", action)
	}
	return p, nil
}
