// Package catalogimporter loads product model definitions from a JSON file
// into the tracker's model catalog.
package catalogimporter

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/catalog"
	storagesqlite "github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage/sqlite"
)

// Config holds configuration for the catalog importer.
type Config struct {
	File   string
	DBPath string
	DryRun bool
}

// ParseConfig parses CLI flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{
		DBPath: "tracker.sqlite",
	}

	fs.StringVar(&cfg.File, "file", "", "JSON file with model definitions")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "tracker database path")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "validate without writing to the database")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.File) == "" {
		return Config{}, errors.New("file is required")
	}
	return cfg, nil
}

// modelRecord is one catalog entry in the import file.
type modelRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PartsMonths   int    `json:"parts_months"`
	ServiceMonths int    `json:"service_months"`
	Enabled       *bool  `json:"enabled,omitempty"`
}

func (r modelRecord) validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("model id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("model %s: name is required", r.ID)
	}
	if r.PartsMonths < 0 || r.ServiceMonths < 0 {
		return fmt.Errorf("model %s: warranty months must not be negative", r.ID)
	}
	return nil
}

// Run executes the importer using the provided Config.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}

	records, err := readModelFile(cfg.File)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.New("no model records found")
	}

	seen := make(map[string]bool, len(records))
	for _, record := range records {
		if err := record.validate(); err != nil {
			return err
		}
		if seen[record.ID] {
			return fmt.Errorf("model %s repeats in file", record.ID)
		}
		seen[record.ID] = true
	}

	if cfg.DryRun {
		_, err = fmt.Fprintf(out, "validated %d model(s)\n", len(records))
		return err
	}

	store, err := storagesqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open tracker store: %w", err)
	}
	defer store.Close()

	models := catalog.New(store)
	for _, record := range records {
		if _, err := models.Register(ctx, catalog.ModelInput{
			ID:            record.ID,
			Name:          record.Name,
			PartsMonths:   record.PartsMonths,
			ServiceMonths: record.ServiceMonths,
		}); err != nil {
			return fmt.Errorf("register model %s: %w", record.ID, err)
		}
		if record.Enabled != nil && !*record.Enabled {
			if _, err := models.Disable(ctx, record.ID); err != nil {
				return fmt.Errorf("disable model %s: %w", record.ID, err)
			}
		}
	}

	_, err = fmt.Fprintf(out, "imported %d model(s)\n", len(records))
	return err
}

func readModelFile(path string) ([]modelRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var records []modelRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}
