package transport

import (
	"nordflytt_backend/internal/pricing/engine"

	"github.com/shopspring/decimal"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// BoxCountsRequest is the box rental part of a quote request.
type BoxCountsRequest struct {
	Moving   int `json:"moving" validate:"min=0"`
	Wardrobe int `json:"wardrobe" validate:"min=0"`
	Picture  int `json:"picture" validate:"min=0"`
	Mirror   int `json:"mirror" validate:"min=0"`
}

// QuoteRequest is the request body for POST /pricing/quote.
// Elevator values accept both English and Swedish labels.
type QuoteRequest struct {
	Volume       float64 `json:"volume" validate:"min=0"`
	Distance     float64 `json:"distance" validate:"min=0"`
	FromElevator string  `json:"fromElevator" validate:"omitempty,elevator"`
	ToElevator   string  `json:"toElevator" validate:"omitempty,elevator"`
	FromFloor    int     `json:"fromFloor" validate:"min=0"`
	ToFloor      int     `json:"toFloor" validate:"min=0"`
	LivingArea   float64 `json:"livingArea" validate:"min=0"`
	Packing      bool    `json:"packing"`
	Cleaning     bool    `json:"cleaning"`
	HeavyItems   int     `json:"heavyItems" validate:"min=0"`
	LongCarry    bool    `json:"longCarry"`
	// ExtraCarryMeters wins over the parking distances when both are sent.
	ExtraCarryMeters  *float64         `json:"extraCarryMeters" validate:"omitempty,min=0"`
	ParkingFrom       float64          `json:"parkingFrom" validate:"min=0"`
	ParkingTo         float64          `json:"parkingTo" validate:"min=0"`
	KeyCustomer       bool             `json:"keyCustomer"`
	LowSeason         bool             `json:"lowSeason"`
	FurnitureAssembly bool             `json:"furnitureAssembly"`
	WallMounting      bool             `json:"wallMounting"`
	DebrisRemoval     bool             `json:"debrisRemoval"`
	AllergyCleaning   bool             `json:"allergyCleaning"`
	Boxes             BoxCountsRequest `json:"boxes"`
}

// ToMoveRequest maps the request body onto the engine input. freeCarryMeters
// comes from the active price sheet.
func (r QuoteRequest) ToMoveRequest(freeCarryMeters float64) engine.MoveRequest {
	extra := engine.CarryExtraMeters(r.ParkingFrom, r.ParkingTo, freeCarryMeters)
	if r.ExtraCarryMeters != nil {
		extra = *r.ExtraCarryMeters
	}
	return engine.MoveRequest{
		Volume:            r.Volume,
		Distance:          r.Distance,
		FromElevator:      engine.ElevatorType(r.FromElevator),
		ToElevator:        engine.ElevatorType(r.ToElevator),
		FromFloor:         r.FromFloor,
		ToFloor:           r.ToFloor,
		LivingArea:        r.LivingArea,
		Packing:           r.Packing,
		Cleaning:          r.Cleaning,
		HeavyItems:        r.HeavyItems,
		LongCarry:         r.LongCarry || extra > 0,
		ExtraCarryMeters:  extra,
		KeyCustomer:       r.KeyCustomer,
		LowSeason:         r.LowSeason,
		FurnitureAssembly: r.FurnitureAssembly,
		WallMounting:      r.WallMounting,
		DebrisRemoval:     r.DebrisRemoval,
		AllergyCleaning:   r.AllergyCleaning,
		Boxes: engine.BoxCounts{
			Moving:   r.Boxes.Moving,
			Wardrobe: r.Boxes.Wardrobe,
			Picture:  r.Boxes.Picture,
			Mirror:   r.Boxes.Mirror,
		},
	}
}

// ── Responses ─────────────────────────────────────────────────────────────────

// LineItem is one priced row of a quote, in kronor with öre precision.
type LineItem struct {
	Code   string  `json:"code"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// QuoteResponse is the response body for POST /pricing/quote.
type QuoteResponse struct {
	TableVersion         string     `json:"tableVersion"`
	Currency             string     `json:"currency"`
	Lines                []LineItem `json:"lines"`
	Subtotal             float64    `json:"subtotal"`
	AddOnCount           int        `json:"addOnCount"`
	ComboDiscountPercent float64    `json:"comboDiscountPercent"`
	Discounts            []LineItem `json:"discounts"`
	DiscountTotal        float64    `json:"discountTotal"`
	Trucks               int        `json:"trucks"`
	Slutpris             int64      `json:"slutpris"`
}

// NewQuoteResponse flattens a breakdown into display rows. Zero rows are
// omitted; amounts are rounded to öre for display only.
func NewQuoteResponse(b engine.PriceBreakdown, currency string) QuoteResponse {
	c := b.Components
	lines := nonZero([]lineSource{
		{"base", "Grundpris", c.BasePrice},
		{"distance", "Avståndstillägg", c.DistanceFee},
		{"carry_from", "Bärhjälp från", c.CarryFrom},
		{"carry_to", "Bärhjälp till", c.CarryTo},
		{"long_carry", "Långt bäravstånd", c.LongCarry},
		{"heavy_items", "Tunga föremål", c.HeavyItems},
		{"packing", "Packhjälp", c.Packing},
		{"cleaning", "Flyttstädning", c.Cleaning},
		{"assembly", "Möbelmontering", c.Assembly},
		{"wall_mounting", "Upphängning", c.WallMounting},
		{"debris_removal", "Bortforsling", c.DebrisRemoval},
		{"boxes", "Flyttkartonger", c.Boxes},
	})
	d := b.Discounts
	discounts := nonZero([]lineSource{
		{"combo", "Kombinationsrabatt", d.Combo},
		{"volume", "Volymrabatt", d.Volume},
		{"key_customer", "Nyckelkundsrabatt", d.KeyCustomer},
		{"low_season", "Lågsäsongsrabatt", d.LowSeason},
	})

	return QuoteResponse{
		TableVersion:         b.TableVersion,
		Currency:             currency,
		Lines:                lines,
		Subtotal:             ore(b.Subtotal),
		AddOnCount:           b.AddOnCount,
		ComboDiscountPercent: b.ComboDiscountPercent.InexactFloat64(),
		Discounts:            discounts,
		DiscountTotal:        ore(d.Total()),
		Trucks:               b.Trucks,
		Slutpris:             b.Slutpris,
	}
}

type lineSource struct {
	code   string
	label  string
	amount decimal.Decimal
}

func nonZero(src []lineSource) []LineItem {
	out := make([]LineItem, 0, len(src))
	for _, s := range src {
		if s.amount.IsZero() {
			continue
		}
		out = append(out, LineItem{Code: s.code, Label: s.label, Amount: ore(s.amount)})
	}
	return out
}

func ore(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
