package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "ten digit us", raw: "2175551234", want: "+12175551234"},
		{name: "formatted us", raw: "(217) 555-1234", want: "+12175551234"},
		{name: "eleven digit with leading one", raw: "1 217 555 1234", want: "+12175551234"},
		{name: "already e164", raw: "+12175551234", want: "+12175551234"},
		{name: "international with plus", raw: "+44 20 7946 0958", want: "+442079460958"},
		{name: "eleven digits wrong prefix", raw: "22175551234", wantErr: true},
		{name: "too short", raw: "555123", wantErr: true},
		{name: "plus but too short", raw: "+12345", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
