package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/homenest/internal/client"
	"github.com/evcraddock/homenest/internal/property"
	"github.com/evcraddock/homenest/internal/view"
)

func newListCmd() *cobra.Command {
	var (
		search string
		sort   string
		page   int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List properties",
		Long:  "List properties from newest to oldest, optionally filtered by a search term and ordered by date or price.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := property.ParseSortKey(sort)
			if err != nil {
				return err
			}

			lp := view.NewListPage(client.ListOptions{Limit: limit})
			lp.SetSearch(search)
			lp.SetSort(key)
			lp.SetPage(page)
			return runList(cmd, lp)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "search term")
	cmd.Flags().StringVar(&sort, "sort", "newest", "ordering: "+sortHelp())
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")

	return cmd
}

// sortHelp describes each sort key, e.g. "date_desc (Newest First)".
func sortHelp() string {
	parts := make([]string, len(property.SortKeys))
	for i, k := range property.SortKeys {
		parts[i] = fmt.Sprintf("%s (%s)", k, k.Label())
	}
	return strings.Join(parts, ", ") + "; aliases newest, oldest, price, -price"
}

func runList(cmd *cobra.Command, lp *view.ListPage) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := lp.Refresh(cmd.Context(), a.api); err != nil {
		return err
	}
	st := lp.State()

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, map[string]interface{}{"data": st.Items, "total": st.Total})
	}
	return printPropertyTable(out, st.Items, a.session.Identity(), st.Total)
}

func newFeaturedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "featured",
		Short: "List featured properties",
		Long:  "List the newest properties the server features on its home page.",
		Args:  cobra.NoArgs,
		RunE:  runFeatured,
	}
}

func runFeatured(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	props, err := a.api.FeaturedProperties(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, props)
	}
	return printPropertyTable(out, props, a.session.Identity(), len(props))
}

func newMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your properties",
		Long:  "List every property you have published.",
		Args:  cobra.NoArgs,
		RunE:  runMine,
	}
}

func runMine(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.requireIdentity()
	if err != nil {
		return err
	}

	props, err := a.api.PropertiesByOwner(cmd.Context(), id.Email)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, props)
	}
	return printPropertyTable(out, props, id, len(props))
}
