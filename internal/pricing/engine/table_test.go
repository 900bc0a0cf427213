package engine

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultTableIsValid(t *testing.T) {
	tbl := DefaultTable()
	if tbl.Version != "2025.1" {
		t.Fatalf("expected version 2025.1, got %q", tbl.Version)
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
	if len(tbl.Base.RatePoints) != 4 {
		t.Fatalf("expected 4 rate points, got %d", len(tbl.Base.RatePoints))
	}
}

func TestLoadTableOverride(t *testing.T) {
	tbl := DefaultTable()
	tbl.Version = "2026.1"
	tbl.Base.Minimum = 2000

	raw, err := yaml.Marshal(tbl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := LoadTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := New(loaded).Compute(MoveRequest{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if b.Slutpris != 2000 || b.TableVersion != "2026.1" {
		t.Fatalf("expected override minimum 2000 from 2026.1, got %d from %s", b.Slutpris, b.TableVersion)
	}
}

func TestLoadTableEmptyPathUsesDefault(t *testing.T) {
	tbl, err := LoadTable("")
	if err != nil || tbl.Version != DefaultTable().Version {
		t.Fatalf("expected default table, got %q, %v", tbl.Version, err)
	}
}

func TestParseTableRejectsIncompleteSheets(t *testing.T) {
	cases := map[string]string{
		"no version":     "base:\n  rate_points:\n    - {volume: 1, rate: 1}\n",
		"no rate points": "version: x\ndistance:\n  truck_capacity_m3: 19\n",
		"not yaml":       "version: [",
	}
	for name, raw := range cases {
		if _, err := ParseTable([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestTableValidateRejectsNegativeLimits(t *testing.T) {
	tbl := DefaultTable()
	tbl.Limits.MaxFloor = -1
	if err := tbl.Validate(); err == nil {
		t.Fatal("expected negative limit to be rejected")
	}
}
