package property

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Draft is the request body for creating or updating a listing.
type Draft struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Category    Category `json:"category" validate:"required,oneof=Rent Sale Commercial Land"`
	Price       float64  `json:"price" validate:"gte=0"`
	Location    string   `json:"location" validate:"required"`
	ImageURL    string   `json:"image" validate:"omitempty,url"`
	OwnerEmail  string   `json:"userEmail" validate:"required,email"`
	OwnerName   string   `json:"userName"`
}

// FieldErrors maps JSON field names to messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = fe[k]
	}
	return strings.Join(msgs, " ")
}

// Validate checks required-field presence before submission.
// It returns FieldErrors or nil.
func (d *Draft) Validate() error {
	return ValidateStruct(d)
}

// Normalize trims whitespace and fills the display name fallback.
func (d *Draft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Location = strings.TrimSpace(d.Location)
	d.ImageURL = strings.TrimSpace(d.ImageURL)
	if strings.TrimSpace(d.OwnerName) == "" {
		d.OwnerName = "Anonymous"
	}
}

// ValidateStruct validates a pointer to a tagged struct and reports
// failures keyed by JSON field name.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	structType := reflect.TypeOf(s).Elem()
	out := make(FieldErrors, len(verrs))
	for _, e := range verrs {
		name := e.StructField()
		if field, ok := structType.FieldByName(e.StructField()); ok {
			if tag := strings.Split(field.Tag.Get("json"), ",")[0]; tag != "" {
				name = tag
			}
		}
		out[name] = fieldMessage(name, e)
	}
	return out
}

func fieldMessage(name string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("The field '%s' is required.", name)
	case "email":
		return fmt.Sprintf("The field '%s' must be a valid email address.", name)
	case "url":
		return fmt.Sprintf("The field '%s' must be a valid URL.", name)
	case "gte":
		return fmt.Sprintf("The field '%s' must be greater than or equal to %s.", name, e.Param())
	case "lte":
		return fmt.Sprintf("The field '%s' must be less than or equal to %s.", name, e.Param())
	case "min":
		return fmt.Sprintf("The field '%s' must be at least %s.", name, e.Param())
	case "max":
		return fmt.Sprintf("The field '%s' must be at most %s.", name, e.Param())
	case "oneof":
		return fmt.Sprintf("The field '%s' must be one of %s.", name, e.Param())
	}
	return fmt.Sprintf("Field '%s' is invalid: %s", name, e.Tag())
}
