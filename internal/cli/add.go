package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/homenest/internal/property"
)

// propertyFlags are the editable listing fields shared by add and update.
type propertyFlags struct {
	name        string
	description string
	category    string
	price       float64
	location    string
	image       string
}

func (f *propertyFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "property name")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.category, "category", "", "category ("+categoryList()+")")
	cmd.Flags().Float64Var(&f.price, "price", 0, "price")
	cmd.Flags().StringVar(&f.location, "location", "", "location")
	cmd.Flags().StringVar(&f.image, "image", "", "image URL")
}

// apply copies the flags the user set onto d.
func (f *propertyFlags) apply(cmd *cobra.Command, d *property.Draft) error {
	changed := cmd.Flags().Changed
	if changed("name") {
		d.Name = f.name
	}
	if changed("description") {
		d.Description = f.description
	}
	if changed("category") {
		c, ok := property.ParseCategory(f.category)
		if !ok {
			return fmt.Errorf("invalid category %q (valid: %s)", f.category, categoryList())
		}
		d.Category = c
	}
	if changed("price") {
		d.Price = f.price
	}
	if changed("location") {
		d.Location = f.location
	}
	if changed("image") {
		d.ImageURL = f.image
	}
	return nil
}

func categoryList() string {
	names := make([]string, len(property.Categories))
	for i, c := range property.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func newAddCmd() *cobra.Command {
	var f propertyFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a property",
		Long:  "Publish a new property listing owned by the logged-in user.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, &f)
		},
	}

	f.bind(cmd)
	return cmd
}

func runAdd(cmd *cobra.Command, f *propertyFlags) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.requireIdentity()
	if err != nil {
		return err
	}

	d := property.Draft{OwnerEmail: id.Email, OwnerName: id.DisplayName}
	if err := f.apply(cmd, &d); err != nil {
		return err
	}
	d.Normalize()
	if err := d.Validate(); err != nil {
		return err
	}

	p, err := a.api.CreateProperty(cmd.Context(), d)
	if err != nil {
		return fmt.Errorf("adding property: %w", err)
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, p)
	}
	fmt.Fprintln(out, "Property added successfully!")
	printPropertySummary(out, p)
	return nil
}
