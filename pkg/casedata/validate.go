package casedata

import (
	"fmt"
)

// ValidationError reports a record that must not be saved.
type ValidationError struct {
	Field   string // offending field, e.g. "flammable_products[2].attachment_path"
	Message string // user-facing message
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateFlammableProducts checks that every product has a name and its safety data sheet attached.
func ValidateFlammableProducts(products []FlammableProduct) error {
	for i, p := range products {
		if p.Name.IsBlank() {
			return &ValidationError{
				Field:   fmt.Sprintf("flammable_products[%d].name", i),
				Message: "informe o nome do produto",
			}
		}
		if p.AttachmentPath.IsBlank() {
			return &ValidationError{
				Field:   fmt.Sprintf("flammable_products[%d].attachment_path", i),
				Message: fmt.Sprintf("anexe a FISPQ do produto %q antes de salvar", p.Name.Trim()),
			}
		}
	}
	return nil
}
