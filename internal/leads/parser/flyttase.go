package parser

import (
	"regexp"
	"strings"
)

// Flytta.se dumps its booking form as "Label<TAB>Value" lines. The new
// address block starts at the "Ny adress" row; everything before it
// describes the current home.
var (
	flyttaSeToStart = regexp.MustCompile(`(?m)^[ \t]*Ny adress`)

	flyttaSeFrom = before(flyttaSeToStart)
	flyttaSeTo   = from(flyttaSeToStart)
)

func tab(name string) string { return label(name, `[ \t]+`) }

// question matches a form question ending in "?" and captures the first
// word of the answer, which may sit on the next line.
func question(prefix string) string {
	return prefix + `[^?\n]*\?\s*(\S+)`
}

const (
	flyttaSeFloor   = `På vilken våning[^?\n]*\?\s*(?:Våning\s*)?(\d+|[Bb]ottenvåning|BV|bv)`
	flyttaSeParking = `Avstånd till parkering[^\n\d]*(\d+)`
)

var flyttaSeGrammar = grammar{
	format: FormatFlyttaSe,
	detect: func(text string) bool {
		return strings.Contains(text, "Domän") && strings.Contains(text, "Flytta.se")
	},
	rules: []fieldRule{
		rule("customerName", tab(`Namn`), setName),
		rule("email", tab(`E-post`), setEmail),
		rule("phone", tab(`Telefonnummer`), setPhone),
		rule("moveDate", tab(`Önskat flyttdatum`), setMoveDate),
		rule("flexibleDate", tab(`Flexibelt flyttdatum`), setFlexible),
		rule("packingService", question(`Vill du att flyttfirman packar`), setPacking),
		rule("cleaningService", question(`Vill du ha flyttstädning`), setCleaning),
		rule("additionalInfo", tab(`Meddelande`), setInfo),

		scoped("fromAddress", flyttaSeFrom, tab(`(?:Gatuadress|Adress)`), fromSide.address),
		scoped("fromPostcode", flyttaSeFrom, tab(`Postnummer`), fromSide.postcode),
		scoped("fromCity", flyttaSeFrom, tab(`Postort`), fromSide.city),
		scoped("squareMeters", flyttaSeFrom, tab(`Bostadsstorlek`), setSquareMeters),
		scoped("rooms", flyttaSeFrom, tab(`Antal rum`), setRooms),
		scoped("fromPropertyType", flyttaSeFrom, tab(`Bostadstyp`), fromSide.propertyType),
		scoped("fromFloor", flyttaSeFrom, flyttaSeFloor, fromSide.floor),
		scoped("hasElevatorFrom", flyttaSeFrom, question(`Finns hiss`), fromSide.elevator),
		scoped("parkingDistanceFrom", flyttaSeFrom, flyttaSeParking, fromSide.parking),

		scoped("toAddress", flyttaSeTo, tab(`(?:Ny gatuadress|Ny adress)`), toSide.address),
		scoped("toPostcode", flyttaSeTo, tab(`Nytt postnummer`), toSide.postcode),
		scoped("toCity", flyttaSeTo, tab(`Ny postort`), toSide.city),
		scoped("toPropertyType", flyttaSeTo, tab(`Typ av ny bostad`), toSide.propertyType),
		scoped("toFloor", flyttaSeTo, flyttaSeFloor, toSide.floor),
		scoped("hasElevatorTo", flyttaSeTo, question(`Finns hiss`), toSide.elevator),
		scoped("parkingDistanceTo", flyttaSeTo, flyttaSeParking, toSide.parking),
	},
}
