package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/homenest/internal/property"
	"github.com/evcraddock/homenest/internal/rating"
	"github.com/evcraddock/homenest/internal/session"
	"github.com/evcraddock/homenest/internal/view"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertySummary prints a single property in text format.
func printPropertySummary(w io.Writer, p *property.Property) {
	fmt.Fprintf(w, "%s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(w, "  Category: %s\n", p.Category)
	fmt.Fprintf(w, "  Price:    %s\n", formatPrice(p.Price))
	fmt.Fprintf(w, "  Location: %s\n", p.Location)
	fmt.Fprintf(w, "  Owner:    %s <%s>\n", p.OwnerName, p.OwnerEmail)
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  Listed:   %s\n", p.CreatedAt.Format("Jan 2, 2006"))
	}
	if p.ImageURL != "" {
		fmt.Fprintf(w, "  Image:    %s\n", p.ImageURL)
	}
	if p.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", p.Description)
	}
}

// printPropertyTable prints listings as a table. The ACTIONS column shows
// what viewer may do with each row.
func printPropertyTable(w io.Writer, props []*property.Property, viewer *session.Identity, total int) error {
	if len(props) == 0 {
		fmt.Fprintln(w, "No properties found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tLOCATION\tOWNER\tACTIONS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t----\t--------\t-----\t--------\t-----\t-------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		actions := view.ActionsFor(p, viewer)
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = string(a)
		}

		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, truncate(p.Name, 30), p.Category, formatPrice(p.Price),
			truncate(p.Location, 24), p.OwnerName, strings.Join(names, ",")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	if total > len(props) {
		fmt.Fprintf(w, "\nShowing %d of %d properties\n", len(props), total)
	} else {
		fmt.Fprintf(w, "\nTotal: %d properties\n", len(props))
	}
	return nil
}

// printRatingList prints ratings in text format. With showProperty set each
// rating is labelled with the property it belongs to.
func printRatingList(w io.Writer, ratings []*rating.Rating, showProperty bool) {
	if len(ratings) == 0 {
		fmt.Fprintln(w, "No ratings yet.")
		return
	}

	for _, r := range ratings {
		header := r.ReviewerName
		if showProperty {
			header = r.PropertyName
		}
		fmt.Fprintf(w, "%s %s (#%s)", rating.Stars(r.Rating), header, r.ID)
		if !r.CreatedAt.IsZero() {
			fmt.Fprintf(w, " %s", r.CreatedAt.Format("Jan 2, 2006"))
		}
		fmt.Fprintln(w)
		if r.Comment != "" {
			fmt.Fprintf(w, "  %s\n", r.Comment)
		}
		fmt.Fprintln(w)
	}
}

// formatPrice formats a price with thousands separators. Cents are shown
// only when present.
func formatPrice(price float64) string {
	cents := int64(math.Round(math.Abs(price) * 100))
	whole, frac := cents/100, cents%100

	s := fmt.Sprintf("%d", whole)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := "$" + strings.Join(parts, ",")
	if frac != 0 {
		out += fmt.Sprintf(".%02d", frac)
	}
	if price < 0 && cents != 0 {
		out = "-" + out
	}
	return out
}

// formatAverage renders an average rating with one decimal.
func formatAverage(avg float64, n int) string {
	if n == 0 {
		return "no ratings"
	}
	noun := "ratings"
	if n == 1 {
		noun = "rating"
	}
	return fmt.Sprintf("%.1f / %d (%d %s)", avg, rating.MaxStars, n, noun)
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
