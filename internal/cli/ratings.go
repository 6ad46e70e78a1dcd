package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/homenest/internal/client"
	"github.com/evcraddock/homenest/internal/rating"
)

func newRatingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ratings <id>",
		Short: "List ratings for a property",
		Args:  cobra.ExactArgs(1),
		RunE:  runRatings,
	}
}

func runRatings(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rs, err := a.api.ListRatings(cmd.Context(), client.RatingFilter{PropertyID: args[0]})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	avg := rating.Average(rs)
	if isJSON() {
		return printJSON(out, map[string]interface{}{"data": rs, "average": avg})
	}
	fmt.Fprintf(out, "Rating: %s\n\n", formatAverage(avg, len(rs)))
	printRatingList(out, rs, false)
	return nil
}

func newMyRatingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "my-ratings",
		Short: "List the ratings you have left",
		Args:  cobra.NoArgs,
		RunE:  runMyRatings,
	}
}

func runMyRatings(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.requireIdentity()
	if err != nil {
		return err
	}

	rs, err := a.api.ListRatings(cmd.Context(), client.RatingFilter{ReviewerEmail: id.Email})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, rs)
	}
	printRatingList(out, rs, true)
	return nil
}
