package engine

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_table.yaml
var defaultTableYAML []byte

// Table is a versioned price sheet. All amounts are SEK.
type Table struct {
	Version   string         `yaml:"version" json:"version"`
	Currency  string         `yaml:"currency" json:"currency"`
	Base      BaseRates      `yaml:"base" json:"base"`
	Distance  DistanceRates  `yaml:"distance" json:"distance"`
	Floors    FloorRates     `yaml:"floors" json:"floors"`
	LongCarry LongCarryRates `yaml:"long_carry" json:"longCarry"`
	Services  ServiceRates   `yaml:"services" json:"services"`
	Boxes     BoxRates       `yaml:"boxes" json:"boxes"`
	Discounts DiscountRates  `yaml:"discounts" json:"discounts"`
	Limits    RequestLimits  `yaml:"limits" json:"limits"`
}

// RatePoint is the per-m³ base rate at one volume.
type RatePoint struct {
	Volume float64 `yaml:"volume" json:"volume"`
	Rate   float64 `yaml:"rate" json:"rate"`
}

// BaseRates prices the volume itself.
type BaseRates struct {
	Minimum    float64     `yaml:"minimum" json:"minimum"`
	RatePoints []RatePoint `yaml:"rate_points" json:"ratePoints"`
}

// DistanceRates prices driving beyond the free kilometres, per truck.
type DistanceRates struct {
	FreeKm            float64 `yaml:"free_km" json:"freeKm"`
	LongHaulKm        float64 `yaml:"long_haul_km" json:"longHaulKm"`
	RatePerKm         float64 `yaml:"rate_per_km" json:"ratePerKm"`
	LongHaulRatePerKm float64 `yaml:"long_haul_rate_per_km" json:"longHaulRatePerKm"`
	TruckCapacityM3   float64 `yaml:"truck_capacity_m3" json:"truckCapacityM3"`
	TruckFactor       float64 `yaml:"truck_factor" json:"truckFactor"`
	TruckBase         float64 `yaml:"truck_base" json:"truckBase"`
}

// FloorRates prices carrying per m³ and chargeable floor, by elevator type.
type FloorRates struct {
	FreeFloors     int                      `yaml:"free_floors" json:"freeFloors"`
	RatePerM3Floor map[ElevatorType]float64 `yaml:"rate_per_m3_floor" json:"ratePerM3Floor"`
}

// LongCarryRates prices carrying from a distant parking spot.
type LongCarryRates struct {
	FreeMeters   float64 `yaml:"free_meters" json:"freeMeters"`
	MaxMeters    float64 `yaml:"max_meters" json:"maxMeters"`
	RatePerMeter float64 `yaml:"rate_per_meter" json:"ratePerMeter"`
}

// ServiceRates holds the add-on services and heavy items.
type ServiceRates struct {
	HeavyItem             float64 `yaml:"heavy_item" json:"heavyItem"`
	PackingPerSqm         float64 `yaml:"packing_per_sqm" json:"packingPerSqm"`
	CleaningPerSqm        float64 `yaml:"cleaning_per_sqm" json:"cleaningPerSqm"`
	AllergyCleaningPerSqm float64 `yaml:"allergy_cleaning_per_sqm" json:"allergyCleaningPerSqm"`
	FurnitureAssembly     float64 `yaml:"furniture_assembly" json:"furnitureAssembly"`
	WallMounting          float64 `yaml:"wall_mounting" json:"wallMounting"`
	DebrisRemoval         float64 `yaml:"debris_removal" json:"debrisRemoval"`
}

// BoxRates is the unit price of each box kind.
type BoxRates struct {
	Moving   float64 `yaml:"moving" json:"moving"`
	Wardrobe float64 `yaml:"wardrobe" json:"wardrobe"`
	Picture  float64 `yaml:"picture" json:"picture"`
	Mirror   float64 `yaml:"mirror" json:"mirror"`
}

// VolumeBracket gives Rate off the base price growth above AboveM3.
type VolumeBracket struct {
	AboveM3 float64 `yaml:"above_m3" json:"aboveM3"`
	Rate    float64 `yaml:"rate" json:"rate"`
}

// DiscountRates are fractions, so 0.05 means 5 %.
type DiscountRates struct {
	ComboPerService float64         `yaml:"combo_per_service" json:"comboPerService"`
	KeyCustomer     float64         `yaml:"key_customer" json:"keyCustomer"`
	LowSeason       float64         `yaml:"low_season" json:"lowSeason"`
	VolumeBrackets  []VolumeBracket `yaml:"volume_brackets" json:"volumeBrackets"`
}

// RequestLimits bounds what a single quote may contain. A zero field
// leaves that measurement unbounded.
type RequestLimits struct {
	MaxVolumeM3      float64 `yaml:"max_volume_m3" json:"maxVolumeM3"`
	MaxDistanceKm    float64 `yaml:"max_distance_km" json:"maxDistanceKm"`
	MaxLivingAreaSqm float64 `yaml:"max_living_area_sqm" json:"maxLivingAreaSqm"`
	MaxCarryMeters   float64 `yaml:"max_carry_meters" json:"maxCarryMeters"`
	MaxFloor         int     `yaml:"max_floor" json:"maxFloor"`
	MaxItems         int     `yaml:"max_items" json:"maxItems"`
}

// check rejects req when a measurement exceeds its bound. Heavy items and
// every box kind share MaxItems.
func (l RequestLimits) check(r MoveRequest) error {
	floats := []struct {
		name  string
		v     float64
		limit float64
	}{
		{"volume", r.Volume, l.MaxVolumeM3},
		{"distance", r.Distance, l.MaxDistanceKm},
		{"livingArea", r.LivingArea, l.MaxLivingAreaSqm},
		{"extraCarryMeters", r.ExtraCarryMeters, l.MaxCarryMeters},
	}
	for _, f := range floats {
		if f.limit > 0 && f.v > f.limit {
			return invalid(f.name, fmt.Sprintf("%s must not exceed %g", f.name, f.limit))
		}
	}

	ints := []struct {
		name  string
		v     int
		limit int
	}{
		{"fromFloor", r.FromFloor, l.MaxFloor},
		{"toFloor", r.ToFloor, l.MaxFloor},
		{"heavyItems", r.HeavyItems, l.MaxItems},
		{"boxes.moving", r.Boxes.Moving, l.MaxItems},
		{"boxes.wardrobe", r.Boxes.Wardrobe, l.MaxItems},
		{"boxes.picture", r.Boxes.Picture, l.MaxItems},
		{"boxes.mirror", r.Boxes.Mirror, l.MaxItems},
	}
	for _, f := range ints {
		if f.limit > 0 && f.v > f.limit {
			return invalid(f.name, fmt.Sprintf("%s must not exceed %d", f.name, f.limit))
		}
	}
	return nil
}

var (
	defaultOnce  sync.Once
	defaultTable Table
)

// DefaultTable returns the embedded price sheet. It panics if the embedded
// file is invalid, which is caught by the package tests.
func DefaultTable() Table {
	defaultOnce.Do(func() {
		t, err := ParseTable(defaultTableYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded pricing table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// LoadTable reads a price sheet from path. An empty path yields the default.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read pricing table: %w", err)
	}
	return ParseTable(raw)
}

// ParseTable decodes and validates a YAML price sheet.
func ParseTable(raw []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Table{}, fmt.Errorf("decode pricing table: %w", err)
	}
	sort.Slice(t.Base.RatePoints, func(i, j int) bool {
		return t.Base.RatePoints[i].Volume < t.Base.RatePoints[j].Volume
	})
	sort.Slice(t.Discounts.VolumeBrackets, func(i, j int) bool {
		return t.Discounts.VolumeBrackets[i].AboveM3 < t.Discounts.VolumeBrackets[j].AboveM3
	})
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Validate checks that the sheet can price every valid request.
func (t Table) Validate() error {
	if t.Version == "" {
		return fmt.Errorf("pricing table: version is required")
	}
	if len(t.Base.RatePoints) == 0 {
		return fmt.Errorf("pricing table %s: at least one base rate point is required", t.Version)
	}
	if t.Distance.TruckCapacityM3 <= 0 {
		return fmt.Errorf("pricing table %s: truck_capacity_m3 must be positive", t.Version)
	}
	for _, e := range []ElevatorType{ElevatorNone, ElevatorSmall, ElevatorLarge, ElevatorStairs} {
		if _, ok := t.Floors.RatePerM3Floor[e]; !ok {
			return fmt.Errorf("pricing table %s: missing floor rate for elevator %q", t.Version, e)
		}
	}
	l := t.Limits
	if l.MaxVolumeM3 < 0 || l.MaxDistanceKm < 0 || l.MaxLivingAreaSqm < 0 || l.MaxCarryMeters < 0 || l.MaxFloor < 0 || l.MaxItems < 0 {
		return fmt.Errorf("pricing table %s: limits must not be negative", t.Version)
	}
	var percentTotal float64
	for _, b := range t.Discounts.VolumeBrackets {
		percentTotal += b.Rate
	}
	percentTotal += t.Discounts.KeyCustomer + t.Discounts.LowSeason
	if percentTotal >= 1 || t.Discounts.ComboPerService*5 >= 1 {
		return fmt.Errorf("pricing table %s: discounts must stay below 100%%", t.Version)
	}
	return nil
}
