package checkout

import (
	"errors"
	"strings"
)

// ErrIncompleteForm is returned when a required form field is blank.
var ErrIncompleteForm = errors.New("No dejes espacios vacíos porfi")

// ErrEmptyCart is returned when checking out with nothing in the cart.
var ErrEmptyCart = errors.New("cart is empty")

// Form is the checkout form.
type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// FormError lists the blank fields of a rejected form.
type FormError struct {
	Missing []string
}

// Error implements the error interface.
func (e *FormError) Error() string {
	return ErrIncompleteForm.Error()
}

// Is matches ErrIncompleteForm.
func (e *FormError) Is(target error) bool {
	return target == ErrIncompleteForm
}

// Normalize returns the form with surrounding whitespace trimmed.
func (f Form) Normalize() Form {
	return Form{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Address: strings.TrimSpace(f.Address),
	}
}

// Validate requires every trimmed field to be non-empty.
func (f Form) Validate() error {
	n := f.Normalize()

	var missing []string
	if n.Name == "" {
		missing = append(missing, "name")
	}
	if n.Email == "" {
		missing = append(missing, "email")
	}
	if n.Address == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return &FormError{Missing: missing}
	}
	return nil
}
