package scrape

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRegistry(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resorts.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRegistry_Embedded(t *testing.T) {
	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("embedded registry must load: %v", err)
	}
	if len(reg.Resorts) == 0 {
		t.Fatal("embedded registry has no resorts")
	}
	for _, r := range reg.Resorts {
		if r.ID == "" || r.Name == "" {
			t.Fatalf("resort missing id or name: %+v", r)
		}
	}
}

func TestLoadRegistry_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "empty id",
			yaml: `resorts:
  - name: Nameless
    snotel: {station_triplet: "1:WA:SNTL"}`,
			wantErr: "empty id",
		},
		{
			name: "duplicate id",
			yaml: `resorts:
  - id: baker
    name: A
    snotel: {station_triplet: "1:WA:SNTL"}
  - id: baker
    name: B
    snotel: {station_triplet: "2:WA:SNTL"}`,
			wantErr: "duplicate resort id",
		},
		{
			name: "no sources",
			yaml: `resorts:
  - id: ghost
    name: Ghost Hill`,
			wantErr: "no sources",
		},
		{
			name: "page without strategies",
			yaml: `resorts:
  - id: web
    name: Web Only
    page:
      url: https://example.com/snow`,
			wantErr: "no extraction strategies",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeRegistry(t, tc.yaml)
			_, err := LoadRegistry(path)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestFind(t *testing.T) {
	reg := &Registry{Resorts: []ResortConfig{
		{ID: "baker", Name: "Mt. Baker"},
		{ID: "crystal", Name: "Crystal Mountain"},
	}}

	cfg, ok := reg.Find("crystal")
	if !ok || cfg.Name != "Crystal Mountain" {
		t.Fatalf("Find(crystal) = %+v, %v", cfg, ok)
	}
	if _, ok := reg.Find("aspen"); ok {
		t.Fatal("unknown id must not be found")
	}
}

func TestLocationDefault(t *testing.T) {
	cfg := &ResortConfig{ID: "baker"}
	if got := cfg.Location(); got != "America/Los_Angeles" {
		t.Fatalf("default timezone = %q", got)
	}
	cfg.Timezone = "America/Denver"
	if got := cfg.Location(); got != "America/Denver" {
		t.Fatalf("explicit timezone = %q", got)
	}
}
