// Package etfgrid extracts long-format time series from sectioned ETF
// spreadsheets and writes new trading days back into them.
package etfgrid

import (
	"fmt"
	"os"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Backend selects how a workbook is held in memory.
type Backend string

const (
	// BackendNative edits the xlsx file in place, preserving styles and formulas.
	BackendNative Backend = "native"
	// BackendStructural loads values and formula text only; saving rewrites
	// the sheet without styles.
	BackendStructural Backend = "structural"
)

// Options configures sessions and extraction.
type Options struct {
	// Backend selects the grid backend (default native).
	Backend Backend `yaml:"backend"`
	// Sheet names the worksheet; empty selects the active sheet.
	Sheet string `yaml:"sheet"`
	// Layout holds the fixed document coordinates.
	Layout models.Layout `yaml:"layout"`
	// Keywords drives section detection and classification.
	Keywords models.KeywordTable `yaml:"keywords"`
	// Backup configures the copy written before each save.
	Backup BackupOptions `yaml:"backup"`
	// Database is the SQLite path used by import and export.
	Database string `yaml:"database"`
	// FetchParallelism bounds concurrent quote fetches.
	FetchParallelism int `yaml:"fetch_parallelism"`
	// Logger receives diagnostics. If nil, logging is disabled.
	Logger *zap.Logger `yaml:"-"`
}

// BackupOptions configures pre-save backups.
type BackupOptions struct {
	// Enabled writes a timestamped copy of the file before it is replaced.
	Enabled bool `yaml:"enabled"`
	// Dir holds backups; empty places them next to the workbook.
	Dir string `yaml:"dir"`
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		Backend:          BackendNative,
		Layout:           models.DefaultLayout(),
		Keywords:         models.DefaultKeywords(),
		Backup:           BackupOptions{Enabled: true},
		Database:         "etf_data.db",
		FetchParallelism: 4,
	}
}

// LoadOptions reads a YAML config file over the defaults and applies
// environment overrides. A missing file yields the defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &opts); err != nil {
				return opts, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return opts, fmt.Errorf("failed to read config: %w", err)
		}
	}
	opts.applyEnvOverrides()
	return opts, opts.Validate()
}

// applyEnvOverrides lets the environment replace file settings.
func (o *Options) applyEnvOverrides() {
	if v := os.Getenv("ETFGRID_DB"); v != "" {
		o.Database = v
	}
	if v := os.Getenv("ETFGRID_BACKUP_DIR"); v != "" {
		o.Backup.Dir = v
	}
	if v := os.Getenv("ETFGRID_SHEET"); v != "" {
		o.Sheet = v
	}
}

// Validate checks the options for values the engine cannot work with.
func (o Options) Validate() error {
	switch o.Backend {
	case BackendNative, BackendStructural:
	default:
		return fmt.Errorf("invalid backend: %s (must be native or structural)", o.Backend)
	}
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	if len(o.Keywords.Headers) == 0 {
		return fmt.Errorf("keyword table has no header keywords")
	}
	return nil
}

// withDefaults fills zero-valued fields from DefaultOptions, so that
// Options{} behaves like DefaultOptions() without backups.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Backend == "" {
		o.Backend = def.Backend
	}
	if o.Layout == (models.Layout{}) {
		o.Layout = def.Layout
	}
	if len(o.Keywords.Headers) == 0 && len(o.Keywords.Roles) == 0 && len(o.Keywords.Aggregates) == 0 {
		o.Keywords = def.Keywords
	}
	if o.FetchParallelism == 0 {
		o.FetchParallelism = def.FetchParallelism
	}
	return o
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
