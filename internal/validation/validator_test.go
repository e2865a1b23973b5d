package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookdenapp/bookden-shell/internal/errors"
)

type signUpForm struct {
	FirstName      string `json:"first_name" validate:"required"`
	Surname        string `json:"surname" validate:"required"`
	Username       string `json:"username" validate:"required"`
	Password       string `json:"password" validate:"required,min=8"`
	PasswordRepeat string `json:"password_repeat" validate:"required,eqfield=Password"`
}

func TestValidate_OK(t *testing.T) {
	v := New()
	err := v.Validate(signUpForm{
		FirstName:      "Ada",
		Surname:        "Lovelace",
		Username:       "ada",
		Password:       "difference engine",
		PasswordRepeat: "difference engine",
	})
	assert.NoError(t, err)
}

func TestValidate_PasswordMismatch(t *testing.T) {
	v := New()
	err := v.Validate(signUpForm{
		FirstName:      "Ada",
		Surname:        "Lovelace",
		Username:       "ada",
		Password:       "difference engine",
		PasswordRepeat: "analytical engine",
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
	assert.Contains(t, domainErr.Message, "password_repeat")

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "does not match", details["password_repeat"])
}

func TestValidate_UsesJSONTagNames(t *testing.T) {
	v := New()
	err := v.Validate(signUpForm{Surname: "x", Username: "x", Password: "long enough", PasswordRepeat: "long enough"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "first_name")
}
