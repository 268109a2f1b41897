package catalogimporter

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/catalog"
	storagesqlite "github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage/sqlite"
)

func writeModelFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestParseConfigRequiresFile(t *testing.T) {
	fs := flag.NewFlagSet("catalog-importer", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected missing file error")
	}
}

func TestRunImportsModels(t *testing.T) {
	file := writeModelFile(t, `[
		{"id": "pp-2000", "name": "Pressure Pump 2000", "parts_months": 12, "service_months": 24},
		{"id": "pp-1000", "name": "Pressure Pump 1000", "parts_months": 6, "service_months": 12, "enabled": false}
	]`)
	dbPath := filepath.Join(t.TempDir(), "tracker.sqlite")

	var out bytes.Buffer
	err := Run(context.Background(), Config{File: file, DBPath: dbPath}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "imported 2 model(s)") {
		t.Fatalf("output = %q", out.String())
	}

	store, err := storagesqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()

	models := catalog.New(store)
	active, err := models.Get(context.Background(), "pp-2000")
	if err != nil {
		t.Fatalf("get pp-2000: %v", err)
	}
	if !active.Enabled || active.Warranty.PartsMonths != 12 {
		t.Fatalf("pp-2000 = %+v", active)
	}
	retired, err := models.Get(context.Background(), "pp-1000")
	if err != nil {
		t.Fatalf("get pp-1000: %v", err)
	}
	if retired.Enabled {
		t.Fatal("pp-1000 should be disabled")
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	file := writeModelFile(t, `[{"id": "pp-2000", "name": "Pressure Pump 2000", "parts_months": 12, "service_months": 24}]`)
	dbPath := filepath.Join(t.TempDir(), "tracker.sqlite")

	var out bytes.Buffer
	if err := Run(context.Background(), Config{File: file, DBPath: dbPath, DryRun: true}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "validated 1 model(s)") {
		t.Fatalf("output = %q", out.String())
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("dry run created the database")
	}
}

func TestRunRejectsInvalidRecords(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing id", `[{"name": "X", "parts_months": 12, "service_months": 24}]`},
		{"duplicate id", `[{"id": "m", "name": "X", "parts_months": 1, "service_months": 1}, {"id": "m", "name": "Y", "parts_months": 1, "service_months": 1}]`},
		{"negative months", `[{"id": "m", "name": "X", "parts_months": -1, "service_months": 1}]`},
		{"empty file", `[]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			file := writeModelFile(t, tc.content)
			err := Run(context.Background(), Config{File: file, DBPath: filepath.Join(t.TempDir(), "t.sqlite")}, nil)
			if err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
