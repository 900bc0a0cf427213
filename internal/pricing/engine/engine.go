package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// Components are the itemized charges before discounts. Values are not rounded.
type Components struct {
	BasePrice     decimal.Decimal `json:"basePrice"`
	DistanceFee   decimal.Decimal `json:"distanceFee"`
	CarryFrom     decimal.Decimal `json:"carryFrom"`
	CarryTo       decimal.Decimal `json:"carryTo"`
	LongCarry     decimal.Decimal `json:"longCarry"`
	HeavyItems    decimal.Decimal `json:"heavyItems"`
	Packing       decimal.Decimal `json:"packing"`
	Cleaning      decimal.Decimal `json:"cleaning"`
	Assembly      decimal.Decimal `json:"assembly"`
	WallMounting  decimal.Decimal `json:"wallMounting"`
	DebrisRemoval decimal.Decimal `json:"debrisRemoval"`
	Boxes         decimal.Decimal `json:"boxes"`
}

// Sum adds every component.
func (c Components) Sum() decimal.Decimal {
	return decimal.Sum(c.BasePrice, c.DistanceFee, c.CarryFrom, c.CarryTo, c.LongCarry,
		c.HeavyItems, c.Packing, c.Cleaning, c.Assembly, c.WallMounting, c.DebrisRemoval, c.Boxes)
}

// Discounts are the reductions taken off the subtotal. Values are not rounded.
type Discounts struct {
	Combo       decimal.Decimal `json:"combo"`
	Volume      decimal.Decimal `json:"volume"`
	KeyCustomer decimal.Decimal `json:"keyCustomer"`
	LowSeason   decimal.Decimal `json:"lowSeason"`
}

// Total adds every discount.
func (d Discounts) Total() decimal.Decimal {
	return decimal.Sum(d.Combo, d.Volume, d.KeyCustomer, d.LowSeason)
}

// PriceBreakdown is an itemized quote.
type PriceBreakdown struct {
	TableVersion         string          `json:"tableVersion"`
	Components           Components      `json:"components"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	AddOnCount           int             `json:"addOnCount"`
	ComboDiscountPercent decimal.Decimal `json:"comboDiscountPercent"`
	Discounts            Discounts       `json:"discounts"`
	Trucks               int             `json:"trucks"`
	// Slutpris is the final price in whole kronor.
	Slutpris int64 `json:"slutpris"`
}

// maxSlutpris is the largest total that fits the int64 result.
var maxSlutpris = decimal.NewFromInt(math.MaxInt64)

// Engine prices requests against one table.
type Engine struct {
	table Table
}

// New returns an engine for table. The table is assumed to be validated.
func New(table Table) *Engine {
	return &Engine{table: table}
}

// Table returns the price sheet in use.
func (e *Engine) Table() Table {
	return e.table
}

// ComputeMoveCost prices req with the embedded default table.
func ComputeMoveCost(req MoveRequest) (PriceBreakdown, error) {
	return New(DefaultTable()).Compute(req)
}

// Compute prices req. Charges accumulate first; then the combo discount is
// taken off the subtotal, and the volume, key-customer and low-season
// discounts are each computed from the post-combo amount (never compounded).
func (e *Engine) Compute(req MoveRequest) (PriceBreakdown, error) {
	if err := req.Validate(); err != nil {
		return PriceBreakdown{}, err
	}
	t := e.table
	if err := t.Limits.check(req); err != nil {
		return PriceBreakdown{}, err
	}
	vol := decimal.NewFromFloat(req.Volume)
	area := decimal.NewFromFloat(req.LivingArea)

	trucks := truckCount(req.Volume, t.Distance.TruckCapacityM3)
	base := e.basePrice(req.Volume)

	var c Components
	c.BasePrice = base
	c.DistanceFee = e.distanceFee(req.Distance, trucks)
	c.CarryFrom = e.carry(canonical(req.FromElevator), req.FromFloor, vol)
	c.CarryTo = e.carry(canonical(req.ToElevator), req.ToFloor, vol)
	if req.LongCarry {
		meters := req.ExtraCarryMeters
		if t.LongCarry.MaxMeters > 0 {
			meters = math.Min(meters, t.LongCarry.MaxMeters)
		}
		c.LongCarry = decimal.NewFromFloat(meters).Mul(dec(t.LongCarry.RatePerMeter))
	}
	c.HeavyItems = decimal.NewFromInt(int64(req.HeavyItems)).Mul(dec(t.Services.HeavyItem))

	addOns := 0
	if req.Packing {
		c.Packing = area.Mul(dec(t.Services.PackingPerSqm))
		addOns++
	}
	switch {
	case req.AllergyCleaning:
		c.Cleaning = area.Mul(dec(t.Services.AllergyCleaningPerSqm))
		addOns++
	case req.Cleaning:
		c.Cleaning = area.Mul(dec(t.Services.CleaningPerSqm))
		addOns++
	}
	if req.FurnitureAssembly {
		c.Assembly = dec(t.Services.FurnitureAssembly)
		addOns++
	}
	if req.WallMounting {
		c.WallMounting = dec(t.Services.WallMounting)
		addOns++
	}
	if req.DebrisRemoval {
		c.DebrisRemoval = dec(t.Services.DebrisRemoval)
		addOns++
	}
	c.Boxes = decimal.Sum(
		units(req.Boxes.Moving, t.Boxes.Moving),
		units(req.Boxes.Wardrobe, t.Boxes.Wardrobe),
		units(req.Boxes.Picture, t.Boxes.Picture),
		units(req.Boxes.Mirror, t.Boxes.Mirror),
	)

	subtotal := c.Sum()
	comboPct := dec(t.Discounts.ComboPerService).Mul(decimal.NewFromInt(int64(addOns)))

	var d Discounts
	d.Combo = subtotal.Mul(comboPct)
	afterCombo := subtotal.Sub(d.Combo)
	if req.KeyCustomer {
		d.KeyCustomer = afterCombo.Mul(dec(t.Discounts.KeyCustomer))
	}
	if req.LowSeason {
		d.LowSeason = afterCombo.Mul(dec(t.Discounts.LowSeason))
	}
	d.Volume = e.volumeRebate(req.Volume, base)

	total := subtotal.Sub(d.Total())
	if total.IsNegative() {
		total = decimal.Zero
	}
	total = total.Round(0)
	if total.GreaterThan(maxSlutpris) {
		return PriceBreakdown{}, invalid("total", "price exceeds the supported range")
	}

	return PriceBreakdown{
		TableVersion:         t.Version,
		Components:           c,
		Subtotal:             subtotal,
		AddOnCount:           addOns,
		ComboDiscountPercent: comboPct.Mul(decimal.NewFromInt(100)),
		Discounts:            d,
		Trucks:               trucks,
		Slutpris:             total.IntPart(),
	}, nil
}

// ratePerM3 interpolates the base rate for volume.
func (e *Engine) ratePerM3(volume float64) decimal.Decimal {
	pts := e.table.Base.RatePoints
	if volume <= pts[0].Volume {
		return dec(pts[0].Rate)
	}
	for i := 1; i < len(pts); i++ {
		lo, hi := pts[i-1], pts[i]
		if volume <= hi.Volume {
			frac := decimal.NewFromFloat(volume).Sub(dec(lo.Volume)).Div(dec(hi.Volume).Sub(dec(lo.Volume)))
			return dec(lo.Rate).Add(dec(hi.Rate).Sub(dec(lo.Rate)).Mul(frac))
		}
	}
	return dec(pts[len(pts)-1].Rate)
}

// basePrice is volume times the interpolated rate, never below the minimum.
func (e *Engine) basePrice(volume float64) decimal.Decimal {
	price := decimal.NewFromFloat(volume).Mul(e.ratePerM3(volume))
	return decimal.Max(price, dec(e.table.Base.Minimum))
}

func (e *Engine) distanceFee(km float64, trucks int) decimal.Decimal {
	d := e.table.Distance
	if km <= d.FreeKm {
		return decimal.Zero
	}
	rate := d.RatePerKm
	if km > d.LongHaulKm {
		rate = d.LongHaulRatePerKm
	}
	multiplier := decimal.NewFromInt(int64(trucks)).Mul(dec(d.TruckFactor)).Add(dec(d.TruckBase))
	return decimal.NewFromFloat(km).Mul(dec(rate)).Mul(multiplier)
}

func (e *Engine) carry(elevator ElevatorType, floor int, vol decimal.Decimal) decimal.Decimal {
	floors := floor - e.table.Floors.FreeFloors
	if floors <= 0 {
		return decimal.Zero
	}
	rate := dec(e.table.Floors.RatePerM3Floor[elevator])
	return vol.Mul(decimal.NewFromInt(int64(floors))).Mul(rate)
}

// volumeRebate returns a share of the base-price growth past each bracket, so
// crossing a bracket never makes the move cheaper.
func (e *Engine) volumeRebate(volume float64, base decimal.Decimal) decimal.Decimal {
	rebate := decimal.Zero
	for _, b := range e.table.Discounts.VolumeBrackets {
		if volume <= b.AboveM3 {
			continue
		}
		growth := base.Sub(e.basePrice(b.AboveM3))
		if growth.IsPositive() {
			rebate = rebate.Add(growth.Mul(dec(b.Rate)))
		}
	}
	return rebate
}

func truckCount(volume, capacity float64) int {
	n := int(math.Ceil(volume / capacity))
	if n < 1 {
		return 1
	}
	return n
}

func units(n int, price float64) decimal.Decimal {
	return decimal.NewFromInt(int64(n)).Mul(dec(price))
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
