package parser

import (
	"math"
	"time"

	"nordflytt_backend/internal/pricing/engine"
)

// LeadDefaults holds the values used for anything a lead leaves out. It is
// passed by value so callers can tweak a copy per call.
type LeadDefaults struct {
	SquareMeters         float64
	HasElevatorFrom      bool
	HasElevatorTo        bool
	ParkingDistanceFrom  float64
	ParkingDistanceTo    float64
	FromFloor            int
	ToFloor              int
	PackingService       bool
	CleaningService      bool
	MoveTime             string
	CustomerType         string
	CustomerName         string
	Email                string
	Phone                string
	Address              string
	MoveDateOffset       time.Duration
	VolumePerSquareMeter float64
}

// DefaultLeadDefaults returns the defaults used in production.
func DefaultLeadDefaults() LeadDefaults {
	return LeadDefaults{
		SquareMeters:         50,
		HasElevatorFrom:      true,
		HasElevatorTo:        true,
		ParkingDistanceFrom:  5,
		ParkingDistanceTo:    5,
		FromFloor:            2,
		ToFloor:              2,
		MoveTime:             "08:00-10:00",
		CustomerType:         "private",
		CustomerName:         "Okänd kund",
		Email:                "saknas@nordflytt.se",
		Phone:                "0000000000",
		Address:              "Okänd adress",
		MoveDateOffset:       30 * 24 * time.Hour,
		VolumePerSquareMeter: 0.3,
	}
}

// FilledEndpoint is an Endpoint with every value decided.
type FilledEndpoint struct {
	Address         string       `json:"address"`
	Postcode        string       `json:"postcode,omitempty"`
	City            string       `json:"city,omitempty"`
	Floor           int          `json:"floor"`
	PropertyType    PropertyType `json:"propertyType"`
	HasElevator     bool         `json:"hasElevator"`
	ParkingDistance float64      `json:"parkingDistance"`
}

// FilledLead is a ParsedLead after defaults. Defaulted lists the fields that
// were not in the lead text.
type FilledLead struct {
	CustomerName    string         `json:"customerName"`
	Email           string         `json:"email"`
	Phone           string         `json:"phone"`
	From            FilledEndpoint `json:"from"`
	To              FilledEndpoint `json:"to"`
	MoveDate        string         `json:"moveDate"`
	FlexibleDate    string         `json:"flexibleDate,omitempty"`
	MoveTime        string         `json:"moveTime"`
	CustomerType    string         `json:"customerType"`
	Rooms           int            `json:"rooms,omitempty"`
	SquareMeters    float64        `json:"squareMeters"`
	PackingService  bool           `json:"packingService"`
	CleaningService bool           `json:"cleaningService"`
	EstimatedVolume float64        `json:"estimatedVolume"`
	AdditionalInfo  string         `json:"additionalInfo,omitempty"`
	LeadSource      Format         `json:"leadSource"`
	LeadID          string         `json:"leadId,omitempty"`
	Defaulted       []string       `json:"defaulted,omitempty"`
}

// FillWithDefaults merges parsed over d. The move date defaults to
// now + d.MoveDateOffset and the volume to squareMeters * d.VolumePerSquareMeter.
func FillWithDefaults(parsed ParsedLead, d LeadDefaults, now time.Time) FilledLead {
	f := FilledLead{
		FlexibleDate:   parsed.FlexibleDate,
		MoveTime:       d.MoveTime,
		CustomerType:   d.CustomerType,
		AdditionalInfo: parsed.AdditionalInfo,
		LeadSource:     parsed.LeadSource,
		LeadID:         parsed.LeadID,
	}
	if f.LeadSource == "" {
		f.LeadSource = FormatGeneric
	}

	str := func(field, v, def string) string {
		if v != "" {
			return v
		}
		f.Defaulted = append(f.Defaulted, field)
		return def
	}
	f.CustomerName = str("customerName", parsed.CustomerName, d.CustomerName)
	f.Email = str("email", parsed.Email, d.Email)
	f.Phone = str("phone", parsed.Phone, d.Phone)
	f.MoveDate = str("moveDate", parsed.MoveDate, now.Add(d.MoveDateOffset).Format(time.DateOnly))

	f.From = fillEndpoint(&f, "from", parsed.From, d.Address, d.FromFloor, d.HasElevatorFrom, d.ParkingDistanceFrom)
	f.To = fillEndpoint(&f, "to", parsed.To, d.Address, d.ToFloor, d.HasElevatorTo, d.ParkingDistanceTo)

	if parsed.Rooms != nil {
		f.Rooms = *parsed.Rooms
	}

	f.SquareMeters = d.SquareMeters
	if parsed.SquareMeters != nil {
		f.SquareMeters = *parsed.SquareMeters
	} else {
		f.Defaulted = append(f.Defaulted, "squareMeters")
	}

	f.PackingService = boolOr(parsed.PackingService, d.PackingService)
	f.CleaningService = boolOr(parsed.CleaningService, d.CleaningService)

	if parsed.EstimatedVolume != nil && *parsed.EstimatedVolume > 0 {
		f.EstimatedVolume = *parsed.EstimatedVolume
	} else {
		f.EstimatedVolume = round2(f.SquareMeters * d.VolumePerSquareMeter)
		f.Defaulted = append(f.Defaulted, "estimatedVolume")
	}

	return f
}

func fillEndpoint(f *FilledLead, side string, e Endpoint, address string, floor int, elevator bool, parking float64) FilledEndpoint {
	out := FilledEndpoint{
		Address:         e.Address,
		Postcode:        e.Postcode,
		City:            e.City,
		Floor:           floor,
		PropertyType:    e.PropertyType,
		HasElevator:     elevator,
		ParkingDistance: parking,
	}
	if out.Address == "" {
		out.Address = address
		f.Defaulted = append(f.Defaulted, side+"Address")
	}
	if out.PropertyType == "" {
		out.PropertyType = PropertyApartment
	}
	if e.Floor != nil {
		out.Floor = *e.Floor
	}
	if e.HasElevator != nil {
		out.HasElevator = *e.HasElevator
	}
	if e.ParkingDistance != nil {
		out.ParkingDistance = *e.ParkingDistance
	}
	return out
}

// MoveRequest maps the lead onto a pricing request. Leads only say whether
// there is an elevator, so presence is priced as a large elevator and
// absence as stairs. Carry beyond freeCarryMeters comes from the larger
// parking distance.
func (f FilledLead) MoveRequest(freeCarryMeters float64) engine.MoveRequest {
	extra := engine.CarryExtraMeters(f.From.ParkingDistance, f.To.ParkingDistance, freeCarryMeters)
	return engine.MoveRequest{
		Volume:           f.EstimatedVolume,
		FromElevator:     elevatorFor(f.From.HasElevator),
		ToElevator:       elevatorFor(f.To.HasElevator),
		FromFloor:        max(f.From.Floor, 0),
		ToFloor:          max(f.To.Floor, 0),
		LivingArea:       f.SquareMeters,
		Packing:          f.PackingService,
		Cleaning:         f.CleaningService,
		LongCarry:        extra > 0,
		ExtraCarryMeters: extra,
	}
}

func elevatorFor(present bool) engine.ElevatorType {
	if present {
		return engine.ElevatorLarge
	}
	return engine.ElevatorStairs
}

func boolOr(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
