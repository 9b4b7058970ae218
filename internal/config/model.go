// internal/config/model.go
//
// Typed configuration model for Pagesmith.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                             – dotenv values,
//   • `conf/global.yaml`                          – primary static file,
//   • `PAGESMITH_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • Durations accept Go syntax (`15s`, `2m`).
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.  RootDomain is the apex that tenant
// subdomains hang off (`acme.<root_domain>`).
type HTTP struct {
	ListenAddr      string        `koanf:"listen_addr"      validate:"required,hostname_port"`
	ForceHTTPS      bool          `koanf:"force_https"`
	RootDomain      string        `koanf:"root_domain"      validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"min=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"min=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
}

//
// Store section
//

// Store selects the record backend.  Only the block matching Backend is
// checked (see storeRules in validator.go).
type Store struct {
	Backend string `koanf:"backend" validate:"required,oneof=memory redis sql"`
	Redis   Redis  `koanf:"redis"`
	SQL     SQL    `koanf:"sql"`
}

// Redis points at the key-value backend.  Password may be a vault: URI.
type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"min=0"`
}

// SQL holds the driver name and DSN for the relational backend.  The DSN
// usually carries a password, so operators keep it in Vault.
type SQL struct {
	Driver  string `koanf:"driver"`
	DSN     string `koanf:"dsn"`
	Migrate bool   `koanf:"migrate"`
}

//
// Upstream section
//

// Upstream configures the design and deployment API client.
type Upstream struct {
	BaseURL  string        `koanf:"base_url" validate:"required,url"`
	APIKey   string        `koanf:"api_key"  validate:"required"`
	Timeout  time.Duration `koanf:"timeout"  validate:"min=0"`
	RetryMax int           `koanf:"retry_max" validate:"min=0,max=10"`
}

//
// Lifecycle sections
//

// Deployer picks how deployments obtain a version id.
type Deployer struct {
	VersionPolicy string `koanf:"version_policy" validate:"required,oneof=resolve explicit"`
}

// Design tunes the lifecycle coordinator.
type Design struct {
	SerializePerSubdomain bool `koanf:"serialize_per_subdomain"`
}

// Resolve sizes the rendering cache.  CacheSize 0 disables it.
type Resolve struct {
	CacheTTL  time.Duration `koanf:"cache_ttl"  validate:"min=0"`
	CacheSize int           `koanf:"cache_size" validate:"min=0"`
}

//
// Ambient sections
//

// Log controls the zap logger.
type Log struct {
	Level      string `koanf:"level"        validate:"omitempty,oneof=debug info warn error"`
	MaxSizeMB  int    `koanf:"max_size_mb"  validate:"min=0"`
	MaxBackups int    `koanf:"max_backups"  validate:"min=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"min=0"`
}

// GeoIP optionally enables country and city lookup in the access log.
type GeoIP struct {
	Path string `koanf:"path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // PAGESMITH_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Store    Store    `koanf:"store"`
	Upstream Upstream `koanf:"upstream"`
	Deployer Deployer `koanf:"deployer"`
	Design   Design   `koanf:"design"`
	Resolve  Resolve  `koanf:"resolve"`
	Log      Log      `koanf:"log"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
