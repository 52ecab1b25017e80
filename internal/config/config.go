package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // timezone lookups on hosts without zoneinfo

	"github.com/BurntSushi/toml"

	"berthplan/internal/berth"
)

// Config represents the main configuration for berthplan.
type Config struct {
	HostID   string `toml:"host_id"`
	BaseDir  string `toml:"base_dir"`
	LogDir   string `toml:"log_dir"`
	LogLevel string `toml:"log_level"` // "debug", "info" (default), "warn" or "error"

	// Timezone is the IANA zone naive timestamps are read in at import.
	Timezone string `toml:"timezone"`

	Layout     LayoutConfig     `toml:"layout"`
	Rules      RulesConfig      `toml:"rules"`
	Database   DatabaseConfig   `toml:"database"`
	Archives   []ArchiveConfig  `toml:"archives"`
	Encryption EncryptionConfig `toml:"encryption"`
	Server     ServerConfig     `toml:"server"`
}

// DefaultTimezone is used when the config leaves timezone empty.
const DefaultTimezone = "Asia/Seoul"

// LayoutConfig points at the terminal reference table.
type LayoutConfig struct {
	TerminalFile string `toml:"terminal_file,omitempty"` // YAML; the built-in table when empty
}

// RulesConfig holds grid and clearance settings. Zero values take defaults.
type RulesConfig struct {
	TimeGridMinutes int     `toml:"time_grid_minutes"`
	SpaceGridM      float64 `toml:"space_grid_m"`
	MinGapM         float64 `toml:"min_gap_m"`
	LaneHeightPx    float64 `toml:"lane_height_px"`
	DefaultHeightPx float64 `toml:"default_height_px"`
	MinHeightPx     float64 `toml:"min_height_px"`
}

// DatabaseConfig represents configuration for the planning database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ArchiveConfig represents configuration for a snapshot archive backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ArchiveConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible stores; enables path-style addressing

	// Static credentials. When empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used for archived snapshots.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// ServerConfig configures the board API.
type ServerConfig struct {
	Listen         string `toml:"listen"`
	RequestTimeout string `toml:"request_timeout"` // Go duration, e.g. "15s"
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(hostID, baseDir string) *Config {
	return &Config{
		HostID:   hostID,
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Timezone: DefaultTimezone,
		Rules: RulesConfig{
			TimeGridMinutes: berth.DefaultTimeGridMinutes,
			SpaceGridM:      berth.DefaultSpaceGridM,
			MinGapM:         30,
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
		Archives: []ArchiveConfig{
			{Type: "filesystem", Name: "local", FSRoot: filepath.Join(baseDir, "archive")},
		},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "berthplan.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "berthplan.key"),
		},
		Server: ServerConfig{Listen: "127.0.0.1:8080", RequestTimeout: "15s"},
	}
}

// BerthRules validates the rules block and fills defaults for zero values.
func (c *Config) BerthRules() (berth.Rules, error) {
	r := c.Rules
	switch r.TimeGridMinutes {
	case 0, 15, 30, 60:
	default:
		return berth.Rules{}, fmt.Errorf("unsupported time_grid_minutes %d (use 15, 30 or 60)", r.TimeGridMinutes)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"space_grid_m", r.SpaceGridM},
		{"min_gap_m", r.MinGapM},
		{"lane_height_px", r.LaneHeightPx},
		{"default_height_px", r.DefaultHeightPx},
		{"min_height_px", r.MinHeightPx},
	} {
		if f.v < 0 {
			return berth.Rules{}, fmt.Errorf("%s must not be negative, got %g", f.name, f.v)
		}
	}
	return berth.Rules{
		TimeGridMinutes: r.TimeGridMinutes,
		SpaceGridM:      r.SpaceGridM,
		MinGapM:         r.MinGapM,
		LaneHeightPx:    r.LaneHeightPx,
		DefaultHeightPx: r.DefaultHeightPx,
		MinHeightPx:     r.MinHeightPx,
	}.WithDefaults(), nil
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}

// Timeout parses the server request timeout, defaulting to 15s.
func (s ServerConfig) Timeout() (time.Duration, error) {
	if s.RequestTimeout == "" {
		return 15 * time.Second, nil
	}
	d, err := time.ParseDuration(s.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("parsing request_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("request_timeout must be positive, got %s", d)
	}
	return d, nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
