package validators

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCNJ(t *testing.T) {
	valid := []string{
		"0000001-11.2020.1.01.0001",
		"1234567-89.1999.8.26.0100",
	}
	for _, number := range valid {
		assert.True(t, IsCNJ(number), "expected %q to be valid", number)
	}

	invalid := []string{
		"",
		"1234567891999826 0100",
		"123456789.1999.8.26.0100",    // missing dash
		"1234567-89.1999.8.26.010",    // short origin
		"1234567-89.1999.82.26.0100",  // two digit segment
		"1234567-89-1999-8-26-0100",   // wrong separators
		"0000001-11.2020.1.01.0001 ",  // trailing space
		"abcdefg-hi.jklm.n.op.qrst",
	}
	for _, number := range invalid {
		assert.False(t, IsCNJ(number), "expected %q to be rejected", number)
	}
}

func TestCNJValidatorTag(t *testing.T) {
	validate := validator.New()
	require.NoError(t, validate.RegisterValidation("cnj", CNJ))

	type payload struct {
		Number string `validate:"required,cnj"`
	}

	assert.NoError(t, validate.Struct(&payload{Number: "0000001-11.2020.1.01.0001"}))
	assert.Error(t, validate.Struct(&payload{Number: "not-a-cnj"}))
}

func TestNoDupes(t *testing.T) {
	validate := validator.New()
	require.NoError(t, validate.RegisterValidation("nodupes", NoDupes))

	type payload struct {
		Domains []string `validate:"nodupes"`
	}

	assert.NoError(t, validate.Struct(&payload{Domains: []string{"processes", "publications"}}))
	assert.Error(t, validate.Struct(&payload{Domains: []string{"processes", "processes"}}))
}

func TestNoWhiteSpaces(t *testing.T) {
	validate := validator.New()
	require.NoError(t, validate.RegisterValidation("nospaces", NoWhiteSpaces))

	type payload struct {
		Name string `validate:"nospaces"`
	}

	assert.NoError(t, validate.Struct(&payload{Name: "acme_advocacia"}))
	assert.Error(t, validate.Struct(&payload{Name: "acme advocacia"}))
}
