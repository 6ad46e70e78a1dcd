package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/homenest/internal/view"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show property details",
		Long:  "Show full details for a property, including its ratings and average score.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	detail, err := view.LoadDetail(cmd.Context(), a.api, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, detail)
	}

	printPropertySummary(out, detail.Property)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rating: %s\n\n", formatAverage(detail.Average, len(detail.Ratings)))
	printRatingList(out, detail.Ratings, false)
	return nil
}
