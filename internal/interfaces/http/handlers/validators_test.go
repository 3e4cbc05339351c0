package handlers

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidators(t *testing.T) {
	v := validator.New()
	require.NoError(t, registerValidators(v))

	tests := []struct {
		tag   string
		value string
		valid bool
	}{
		{"owner", "publishers#uuid:" + uuid.NewString(), true},
		{"owner", "publishers#uuid:not-a-uuid", false},
		{"owner", uuid.NewString(), false},
		{"publisher", "example.com", true},
		{"publisher", "sub.example-site.co.uk", true},
		{"publisher", "youtube#channel:UCabc123", true},
		{"publisher", "localhost", false},
		{"publisher", "-bad.com", false},
		{"altcurrency", "BAT", true},
		{"altcurrency", "bat", false},
		{"altcurrency", "B", false},
		{"countrycode", "CA", true},
		{"countrycode", "OT", true},
		{"countrycode", "ZZ", false},
		{"token", "winx64", true},
		{"token", "win x64", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag+"/"+tt.value, func(t *testing.T) {
			err := v.Var(tt.value, tt.tag)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
