package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/homenest/internal/client"
	"github.com/evcraddock/homenest/internal/rating"
	"github.com/evcraddock/homenest/internal/view"
)

func newRateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <id> <1-5> [comment...]",
		Short: "Rate a property",
		Long:  "Leave a rating (1-5) and an optional comment on a property. 5 is best.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runRate,
	}
}

func runRate(cmd *cobra.Command, args []string) error {
	stars, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid rating: %s (must be 1-%d)", args[1], rating.MaxStars)
	}
	if stars < 1 || stars > rating.MaxStars {
		return fmt.Errorf("rating must be 1-%d, got %d", rating.MaxStars, stars)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.requireIdentity()
	if err != nil {
		return err
	}

	detail, err := view.LoadDetail(cmd.Context(), a.api, args[0])
	if err != nil {
		return err
	}
	p := detail.Property

	d := rating.Draft{
		PropertyID:    p.ID,
		PropertyName:  p.Name,
		ReviewerEmail: id.Email,
		ReviewerName:  id.DisplayName,
		Rating:        stars,
		Comment:       strings.Join(args[2:], " "),
	}
	d.Normalize()
	if err := d.Validate(); err != nil {
		return err
	}

	r, err := a.api.CreateRating(cmd.Context(), d)
	if err != nil {
		return err
	}
	detail.AddRating(r)

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, r)
	}
	fmt.Fprintf(out, "%s rated %s\n", d.PropertyName, rating.Stars(stars))
	fmt.Fprintf(out, "Average: %s\n", formatAverage(detail.Average, len(detail.Ratings)))
	return nil
}

func newUnrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unrate <rating-id>",
		Short: "Delete one of your ratings",
		Args:  cobra.ExactArgs(1),
		RunE:  runUnrate,
	}
}

func runUnrate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	viewer, err := a.requireIdentity()
	if err != nil {
		return err
	}

	mine, err := a.api.ListRatings(cmd.Context(), client.RatingFilter{ReviewerEmail: viewer.Email})
	if err != nil {
		return err
	}
	var target *rating.Rating
	for _, r := range mine {
		if r.ID == args[0] {
			target = r
			break
		}
	}
	if !view.CanDeleteRating(target, viewer) {
		return fmt.Errorf("rating %s not found among your ratings", args[0])
	}

	if err := a.api.DeleteRating(cmd.Context(), target.ID); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, map[string]interface{}{
			"id":      target.ID,
			"removed": true,
		})
	}
	fmt.Fprintf(out, "Rating on %s removed.\n", target.PropertyName)
	return nil
}
