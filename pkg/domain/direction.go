package domain

import (
	"strings"

	dErrors "kioskgate/pkg/domain-errors"
)

// Direction marks whether an attempt is to enter or to leave a location. The
// wire value for entry is "access", matching the kiosk protocol.
type Direction string

const (
	DirectionEntry Direction = "access"
	DirectionExit  Direction = "exit"
)

// ParseDirection validates a wire value.
func ParseDirection(raw string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case DirectionEntry:
		return DirectionEntry, nil
	case DirectionExit:
		return DirectionExit, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, `direction must be "access" or "exit"`)
	}
}

func (d Direction) String() string { return string(d) }
