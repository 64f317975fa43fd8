package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"crewboard/internal/config"
	"crewboard/internal/domain"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Board.DefaultView != domain.ViewAll {
		t.Fatalf("default view = %q", cfg.Board.DefaultView)
	}
	if _, ok := cfg.Absences["vacation"]; !ok {
		t.Fatalf("default config has no vacation absence")
	}
}

func TestAbsenceItemsSortedByKind(t *testing.T) {
	cfg := config.Default()
	items := cfg.AbsenceItems()
	if len(items) != len(cfg.Absences) {
		t.Fatalf("got %d items for %d absences", len(items), len(cfg.Absences))
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].ID >= items[i].ID {
			t.Fatalf("items not sorted: %s before %s", items[i-1].ID, items[i].ID)
		}
	}
	for _, it := range items {
		if it.Kind != domain.ItemAbsence {
			t.Fatalf("item %s kind = %q", it.ID, it.Kind)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad view", "board:\n  default_view: sideways\n  shift_filter: all\n"},
		{"bad shift filter", "board:\n  default_view: all\n  shift_filter: dusk\n"},
		{"absence without label", "board:\n  default_view: all\n  shift_filter: all\nabsences:\n  vacation:\n    color: \"#fff\"\n"},
		{"absence color not hex", "board:\n  default_view: all\n  shift_filter: all\nabsences:\n  vacation:\n    label: Vacation\n    color: amber\n"},
		{"webhook without url", "board:\n  default_view: all\n  shift_filter: all\nwebhooks:\n  - events: [\"team.created\"]\n"},
	}
	for _, tc := range cases {
		if _, err := config.FromYAML([]byte(tc.yaml)); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadOptionalFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LoadOptional(dir)
	if err != nil {
		t.Fatalf("load optional: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fallback config invalid: %v", err)
	}

	custom := "board:\n  default_view: personnel\n  shift_filter: day\n"
	if err := os.WriteFile(filepath.Join(dir, "crewboard.yml"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = config.LoadOptional(dir)
	if err != nil {
		t.Fatalf("load optional with file: %v", err)
	}
	if cfg.Board.DefaultView != domain.ViewPersonnel {
		t.Fatalf("view = %q", cfg.Board.DefaultView)
	}
}
