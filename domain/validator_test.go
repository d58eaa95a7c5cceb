package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chatd/errors"
)

func TestValidateCreateRoom(t *testing.T) {
	tests := []struct {
		name  string
		room  string
		valid bool
	}{
		{name: "simple name", room: "lobby", valid: true},
		{name: "exactly ten characters", room: "abcdefghij", valid: true},
		{name: "digits are fine", room: "room42", valid: true},
		{name: "eleven characters", room: "abcdefghijk", valid: false},
		{name: "reserved exclamation mark", room: "toolongname!", valid: false},
		{name: "space", room: "my room", valid: false},
		{name: "comma", room: "a,b", valid: false},
		{name: "empty", room: "", valid: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCreateRoom(CreateRoomRequest{Name: tc.room, Description: "x"})
			if tc.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, errors.ErrInvalidName)
			}
		})
	}
}
