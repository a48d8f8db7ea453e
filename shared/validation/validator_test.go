package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUp struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestValidator_Struct(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	t.Run("valid payload", func(t *testing.T) {
		err := v.Struct(signUp{Name: "A", Email: "a@x.com", Password: "longenough"})
		assert.NoError(t, err)
	})

	t.Run("reports json field names with translated messages", func(t *testing.T) {
		err := v.Struct(signUp{Email: "not-an-email", Password: "short"})

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Len(t, validationErr.Fields, 3)
		assert.Equal(t, "name is a required field", validationErr.Fields["name"])
		assert.Equal(t, "email must be a valid email address", validationErr.Fields["email"])
		assert.Contains(t, validationErr.Fields["password"], "at least 8 characters")
	})
}
