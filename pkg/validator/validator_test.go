package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cardPayload mirrors the shape of the upstream card fields the crawler
// refuses to persist when absent.
type cardPayload struct {
	ID        int64    `validate:"required"`
	Brand     string   `validate:"required"`
	Name      string   `validate:"required"`
	Rating    *float64 `validate:"required"`
	Feedbacks *int64   `validate:"required"`
}

func validPayload() cardPayload {
	rating := 4.7
	feedbacks := int64(312)
	return cardPayload{
		ID:        211034621,
		Brand:     "Nike",
		Name:      "Футболка спортивная",
		Rating:    &rating,
		Feedbacks: &feedbacks,
	}
}

func requireValidationError(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_ValidPayload(t *testing.T) {
	assert.NoError(t, Validate(validPayload()))
}

func TestValidate_ZeroValuedPointerFieldsPass(t *testing.T) {
	// A card with rating 0 and no feedbacks is valid as long as the fields
	// are present; pointers distinguish "absent" from "zero".
	p := validPayload()
	zero := 0.0
	none := int64(0)
	p.Rating = &zero
	p.Feedbacks = &none
	assert.NoError(t, Validate(p))
}

func TestValidate_MissingFields(t *testing.T) {
	p := validPayload()
	p.Name = ""
	p.Rating = nil

	fields := requireValidationError(t, Validate(p))
	assert.Equal(t, "is required", fields["Name"])
	assert.Equal(t, "is required", fields["Rating"])
	assert.NotContains(t, fields, "Brand")
}

func TestValidate_EmptyStruct(t *testing.T) {
	fields := requireValidationError(t, Validate(cardPayload{}))
	assert.Len(t, fields, 5)
}

func TestValidationError_ErrorString(t *testing.T) {
	p := validPayload()
	p.Brand = ""
	err := Validate(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Brand'")
	assert.Contains(t, err.Error(), "is required")
}

type rangeTags struct {
	Page    int    `validate:"gte=1,lte=100"`
	Sort    string `validate:"oneof=popular pricedown priceup"`
	MenuURL string `validate:"url"`
}

func TestValidate_TagMessages(t *testing.T) {
	fields := requireValidationError(t, Validate(rangeTags{
		Page:    101,
		Sort:    "random",
		MenuURL: "not a url",
	}))
	assert.Contains(t, fields["Page"], "less than or equal to 100")
	assert.Contains(t, fields["Sort"], "one of")
	assert.Equal(t, "must be a valid URL", fields["MenuURL"])
}
