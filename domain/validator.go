package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"chatd/errors"
)

var validate = validator.New()

// roomNameSpecials are the characters a room name may not contain,
// in addition to the 10 character limit.
const roomNameSpecials = "!@#$%^&*()_+=|}{:?><[];' ,./"

type CreateRoomRequest struct {
	Name        string `validate:"required,max=10"`
	Description string
}

// ValidateCreateRoom checks the room name against the naming rules.
// Every failure is reported as ErrInvalidName so the caller always gets a
// definite error kind.
func ValidateCreateRoom(req CreateRoomRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidName, err)
	}
	if strings.ContainsAny(req.Name, roomNameSpecials) {
		return fmt.Errorf("%w: name contains a reserved character", errors.ErrInvalidName)
	}
	return nil
}
