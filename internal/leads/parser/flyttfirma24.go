package parser

import (
	"regexp"
	"strings"
)

// flyttfirma24 sends colon-labelled leads with a "Flyttar från:" and a
// "Flyttar till:" section.
var (
	ff24FromStart = regexp.MustCompile(`Flyttar från:`)
	ff24ToStart   = regexp.MustCompile(`Flyttar till:`)

	ff24From = between(ff24FromStart, ff24ToStart)
	ff24To   = between(ff24ToStart, ff24FromStart)
)

func colon(name string) string { return label(name+`:`, `[ \t]*`) }

var flyttfirma24Grammar = grammar{
	format: FormatFlyttfirma24,
	detect: func(text string) bool {
		return strings.Contains(text, "flyttfirma24.se") || strings.Contains(text, "Lead ID:")
	},
	rules: []fieldRule{
		rule("customerName", colon(`Namn`), setName),
		rule("phone", colon(`Telefon`), setPhone),
		rule("email", colon(`E-?post`), setEmail),
		rule("leadId", colon(`Lead ID`), setLeadID),
		rule("moveDate", colon(`Potentiellt flyttdatum`), setMoveDate),
		rule("rooms", colon(`Antal rum`), setRooms),
		rule("squareMeters", colon(`(?:Boyta|Boarea|Kvm)`), setSquareMeters),
		rule("packingService", colon(`(?:Packning|Packhjälp)`), setPacking),
		rule("cleaningService", colon(`(?:Flyttstädning|Städning)`), setCleaning),
		rule("additionalInfo", colon(`(?:Meddelande|Övrigt)`), setInfo),

		scoped("fromAddress", ff24From, colon(`Adress`), fromSide.address),
		scoped("fromPostcode", ff24From, colon(`Postnummer`), fromSide.postcode),
		scoped("fromCity", ff24From, colon(`Ort`), fromSide.city),
		scoped("fromPropertyType", ff24From, colon(`Fastighet`), fromSide.propertyType),
		scoped("fromFloor", ff24From, colon(`Våning`), fromSide.floor),
		scoped("hasElevatorFrom", ff24From, colon(`Hiss`), fromSide.elevator),

		scoped("toAddress", ff24To, colon(`Adress`), toSide.address),
		scoped("toPostcode", ff24To, colon(`Postnummer`), toSide.postcode),
		scoped("toCity", ff24To, colon(`Ort`), toSide.city),
		scoped("toPropertyType", ff24To, colon(`Ny fastighet`), toSide.propertyType),
		scoped("toFloor", ff24To, colon(`Våning`), toSide.floor),
		scoped("hasElevatorTo", ff24To, colon(`Hiss`), toSide.elevator),
	},
}
