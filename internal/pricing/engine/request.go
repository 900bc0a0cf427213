// Package engine computes itemized moving quotes from a versioned price sheet.
// It performs no I/O and holds no mutable state; an Engine may be shared
// between goroutines.
package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"nordflytt_backend/platform/apperr"
)

// ErrInvalidInput marks a request the engine refuses to price.
var ErrInvalidInput = errors.New("invalid move request")

// ElevatorType describes vertical access at one end of the move.
type ElevatorType string

const (
	ElevatorNone   ElevatorType = "none"
	ElevatorSmall  ElevatorType = "small"
	ElevatorLarge  ElevatorType = "large"
	ElevatorStairs ElevatorType = "stairs"
)

var elevatorAliases = map[string]ElevatorType{
	"none":   ElevatorNone,
	"ingen":  ElevatorNone,
	"small":  ElevatorSmall,
	"liten":  ElevatorSmall,
	"large":  ElevatorLarge,
	"big":    ElevatorLarge,
	"stor":   ElevatorLarge,
	"stairs": ElevatorStairs,
	"trappa": ElevatorStairs,
}

// ParseElevatorType accepts the English names and the Swedish labels used in
// booking forms (ingen, liten, stor, trappa).
func ParseElevatorType(s string) (ElevatorType, error) {
	if e, ok := lookupElevator(s); ok {
		return e, nil
	}
	return "", invalid("elevator", fmt.Sprintf("unknown elevator type %q", s))
}

// BoxCounts holds rented box quantities by kind.
type BoxCounts struct {
	Moving   int `json:"moving"`
	Wardrobe int `json:"wardrobe"`
	Picture  int `json:"picture"`
	Mirror   int `json:"mirror"`
}

// MoveRequest describes one move job.
//
// Floors count from 0 (ground floor). An empty elevator type means the
// booking did not say and is priced like ElevatorNone.
type MoveRequest struct {
	Volume           float64      `json:"volume"`   // m3
	Distance         float64      `json:"distance"` // km
	FromElevator     ElevatorType `json:"fromElevator"`
	ToElevator       ElevatorType `json:"toElevator"`
	FromFloor        int          `json:"fromFloor"`
	ToFloor          int          `json:"toFloor"`
	LivingArea       float64      `json:"livingArea"` // m2
	Packing          bool         `json:"packing"`
	Cleaning         bool         `json:"cleaning"`
	HeavyItems       int          `json:"heavyItems"`
	LongCarry        bool         `json:"longCarry"`
	ExtraCarryMeters float64      `json:"extraCarryMeters"`
	KeyCustomer      bool         `json:"keyCustomer"` // nyckelkund
	LowSeason        bool         `json:"lowSeason"`   // lågsäsong

	FurnitureAssembly bool      `json:"furnitureAssembly"`
	WallMounting      bool      `json:"wallMounting"`
	DebrisRemoval     bool      `json:"debrisRemoval"`
	AllergyCleaning   bool      `json:"allergyCleaning"`
	Boxes             BoxCounts `json:"boxes"`
}

// Validate rejects negative or non-finite measurements and unknown elevator
// types. The returned error wraps ErrInvalidInput.
func (r MoveRequest) Validate() error {
	floats := []struct {
		name string
		v    float64
	}{
		{"volume", r.Volume},
		{"distance", r.Distance},
		{"livingArea", r.LivingArea},
		{"extraCarryMeters", r.ExtraCarryMeters},
	}
	for _, f := range floats {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return invalid(f.name, f.name+" must be a finite number")
		}
		if f.v < 0 {
			return invalid(f.name, f.name+" must not be negative")
		}
	}

	ints := []struct {
		name string
		v    int
	}{
		{"fromFloor", r.FromFloor},
		{"toFloor", r.ToFloor},
		{"heavyItems", r.HeavyItems},
		{"boxes.moving", r.Boxes.Moving},
		{"boxes.wardrobe", r.Boxes.Wardrobe},
		{"boxes.picture", r.Boxes.Picture},
		{"boxes.mirror", r.Boxes.Mirror},
	}
	for _, f := range ints {
		if f.v < 0 {
			return invalid(f.name, f.name+" must not be negative")
		}
	}

	elevators := []struct {
		name string
		v    ElevatorType
	}{
		{"fromElevator", r.FromElevator},
		{"toElevator", r.ToElevator},
	}
	for _, f := range elevators {
		if f.v == "" {
			continue
		}
		if _, ok := lookupElevator(string(f.v)); !ok {
			return invalid(f.name, fmt.Sprintf("unknown elevator type %q", f.v))
		}
	}
	return nil
}

// CarryExtraMeters returns the larger excess over freeMeters of the two
// parking distances. Negative distances count as zero.
func CarryExtraMeters(parkingFrom, parkingTo, freeMeters float64) float64 {
	excess := math.Max(parkingFrom, parkingTo) - freeMeters
	if excess < 0 {
		return 0
	}
	return excess
}

func invalid(field, msg string) error {
	return apperr.Wrap(apperr.KindValidation, msg, ErrInvalidInput).
		WithOp("pricing.compute").
		WithDetails(map[string]string{"field": field})
}

func lookupElevator(s string) (ElevatorType, bool) {
	e, ok := elevatorAliases[strings.ToLower(strings.TrimSpace(s))]
	return e, ok
}

// canonical maps a validated value onto one of the four constants.
func canonical(e ElevatorType) ElevatorType {
	if c, ok := lookupElevator(string(e)); ok {
		return c
	}
	return ElevatorNone
}
