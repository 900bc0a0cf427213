package parser

import (
	"regexp"
	"strings"
)

// Plain e-mail leads: "Namn:/E-post:/Telefon:" lines and free-form address
// blocks that run until the next "Label:" line.
var (
	emailNextLabel = regexp.MustCompile(`(?m)^[ \t]*[\p{L}][\p{L} \-]{0,40}:`)

	emailTo   = between(regexp.MustCompile(`Flyttar till:`), emailNextLabel)
	emailFrom = between(regexp.MustCompile(`Flyttar från:`), emailNextLabel)
)

// wholeBlock captures a complete address block, multi-line included.
const wholeBlock = `(?s)^(.+)$`

var emailGrammar = grammar{
	format: FormatEmail,
	detect: func(text string) bool {
		return strings.Contains(text, "Namn:") &&
			(strings.Contains(text, "E-post:") || strings.Contains(text, "Telefon:"))
	},
	rules: []fieldRule{
		rule("customerName", colon(`Namn`), setName),
		rule("email", colon(`(?:E-post|Epost|E-mail|Email)`), setEmail),
		rule("phone", colon(`(?:Telefon|Tel|Mobil)`), setPhone),
		rule("moveDate", colon(`Flyttdatum`), setMoveDate),
		rule("squareMeters", colon(`Flyttar från kvadratmeter`), setSquareMeters),
		rule("rooms", colon(`Antal rum`), setRooms),
		rule("leadId", colon(`Lead-ID`), setLeadID),
		rule("additionalInfo", colon(`(?:Meddelande|Övrigt)`), setInfo),

		scoped("toAddress", emailTo, wholeBlock, toSide.fullAddress),
		scoped("fromAddress", emailFrom, wholeBlock, fromSide.fullAddress),
	},
}
