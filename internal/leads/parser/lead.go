// Package parser turns free-text lead e-mails from moving marketplaces into
// structured move requests. Parsing is best effort and never fails; callers
// judge completeness.
package parser

import "strings"

// Format identifies which grammar produced a ParsedLead. It doubles as the
// lead source tag.
type Format string

const (
	FormatFlyttfirma24 Format = "flyttfirma24"
	FormatFlyttaSe     Format = "flytta.se"
	FormatEmail        Format = "email"
	FormatGeneric      Format = "generic"
)

// PropertyType is the kind of dwelling at one end of the move.
type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyOffice    PropertyType = "office"
	PropertyOther     PropertyType = "other"
)

// ParsePropertyType maps free text onto a PropertyType by keyword. Unknown
// text yields PropertyOther.
func ParsePropertyType(text string) PropertyType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "lägenhet"), strings.Contains(lower, "apartment"):
		return PropertyApartment
	case strings.Contains(lower, "hus"), strings.Contains(lower, "villa"), strings.Contains(lower, "house"):
		return PropertyHouse
	case strings.Contains(lower, "kontor"), strings.Contains(lower, "office"):
		return PropertyOffice
	default:
		return PropertyOther
	}
}

// Endpoint is one end of the move as read from the lead. Nil pointers mean
// the lead did not say.
type Endpoint struct {
	Address         string       `json:"address,omitempty"`
	Postcode        string       `json:"postcode,omitempty"`
	City            string       `json:"city,omitempty"`
	Floor           *int         `json:"floor,omitempty"`
	PropertyType    PropertyType `json:"propertyType,omitempty"`
	HasElevator     *bool        `json:"hasElevator,omitempty"`
	ParkingDistance *float64     `json:"parkingDistance,omitempty"`
}

// HasAddress reports whether any part of the address was found.
func (e Endpoint) HasAddress() bool {
	return e.Address != ""
}

// ParsedLead is everything that could be read from one lead text.
type ParsedLead struct {
	CustomerName    string   `json:"customerName,omitempty"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	From            Endpoint `json:"from"`
	To              Endpoint `json:"to"`
	MoveDate        string   `json:"moveDate,omitempty"`
	FlexibleDate    string   `json:"flexibleDate,omitempty"`
	Rooms           *int     `json:"rooms,omitempty"`
	SquareMeters    *float64 `json:"squareMeters,omitempty"`
	PackingService  *bool    `json:"packingService,omitempty"`
	CleaningService *bool    `json:"cleaningService,omitempty"`
	EstimatedVolume *float64 `json:"estimatedVolume,omitempty"`
	AdditionalInfo  string   `json:"additionalInfo,omitempty"`
	LeadSource      Format   `json:"leadSource"`
	LeadID          string   `json:"leadId,omitempty"`
}

// HasContact reports whether a phone number or e-mail address was found.
func (l ParsedLead) HasContact() bool {
	return l.Phone != "" || l.Email != ""
}

// HasAnyAddress reports whether at least one end of the move has an address.
func (l ParsedLead) HasAnyAddress() bool {
	return l.From.HasAddress() || l.To.HasAddress()
}

// IsIncomplete returns true if the minimum for an offer (name plus a contact
// method) is missing.
func (l ParsedLead) IsIncomplete() bool {
	return l.CustomerName == "" || !l.HasContact()
}
