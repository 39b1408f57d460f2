package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Name given to the stop that represents the traveler's live position.
// A route whose first stop carries this name is planned with the fixed-start
// nearest-neighbour heuristic.
const CurrentLocationName = "Current Location"

// A place the traveler wants to visit.
// ID is assigned at creation and is the only identity used for matching;
// Name is display text.
type Stop struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Direction string      `json:"direction,omitempty"`
	Coords    Coordinates `json:"coords"`
}

func NewStop(name, direction string, coords Coordinates) Stop {
	return Stop{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Direction: strings.TrimSpace(direction),
		Coords:    coords,
	}
}

func (s Stop) IsCurrentLocation() bool {
	return s.Name == CurrentLocationName
}
