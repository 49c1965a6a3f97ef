package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		params CreateParams
		want   error
	}{
		{name: "valid", params: CreateParams{Name: "Ada", Email: "ada@example.com"}},
		{name: "blank name", params: CreateParams{Name: "  ", Email: "ada@example.com"}, want: ErrInvalidName},
		{name: "missing email", params: CreateParams{Name: "Ada"}, want: ErrInvalidEmail},
		{name: "display name form", params: CreateParams{Name: "Ada", Email: "Ada <ada@example.com>"}, want: ErrInvalidEmail},
		{name: "not an address", params: CreateParams{Name: "Ada", Email: "ada"}, want: ErrInvalidEmail},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.params.Validate(), tc.want)
		})
	}
}

func TestCreateParams_Normalize(t *testing.T) {
	got := CreateParams{Name: " Ada ", Email: " Ada@Example.COM "}.Normalize()

	assert.Equal(t, CreateParams{Name: "Ada", Email: "ada@example.com"}, got)
}

func TestClone_IsIndependent(t *testing.T) {
	c := &Customer{ID: "c-1", Name: "Ada"}
	clone := c.Clone()
	clone.Name = "Grace"

	assert.Equal(t, "Ada", c.Name)
	assert.Nil(t, (*Customer)(nil).Clone())
}
