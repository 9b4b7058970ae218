// internal/config/loader.go
//
// Configuration loader and reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `PAGESMITH_`, where `__` maps to “.”
     (e.g., `PAGESMITH_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, any string value of the form `vault:<mount/path>#<key>` is
swapped for the secret it names.  The tree is then unmarshalled into
strongly-typed structs, defaulted, validated, enriched with the runtime root
path, and cached in an `atomic.Pointer` for lock-free reads.  `Reload()`
simply calls `Load()` again and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay, and secret lookups.
  • ERROR spans: YAML parse, env overlay, secrets, unmarshal, and validation.
  • INFO  span:  final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed (bootstrap console).

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • The Vault client is only dialled when at least one `vault:` value is
    present after env overrides.  The shipped conf/global.yaml holds no
    `vault:` values, so local runs need no Vault; they supply the API key
    through PAGESMITH_UPSTREAM__API_KEY.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/pagesmith/internal/vault"
)

const (
	envPrefix = "PAGESMITH_"
	secretTTL = 5 * time.Minute
)

var current atomic.Pointer[Config]

// Secrets resolves a single KV entry.  *vault.Client satisfies it.
type Secrets interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// dialSecrets is swapped in tests.
var dialSecrets = func(ctx context.Context) (Secrets, error) {
	return vault.New(ctx, zap.S().Debugf)
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves PAGESMITH_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to executable heuristic for
// production layout.
func rootDir() string {
	if r := os.Getenv(envPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.
func Load() (*Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := load(ctx, rootDir())
	if err != nil {
		return nil, err
	}
	current.Store(cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"root_domain", cfg.HTTP.RootDomain,
		"store", cfg.Store.Backend,
		"version_policy", cfg.Deployer.VersionPolicy,
		"root", cfg.Paths.Root,
	)
	return cfg, nil
}

func load(ctx context.Context, root string) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: PAGESMITH_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, envPrefix), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	applyDefaults(&cfg)
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}
	return &cfg, nil
}

/*──────────────────────────── secrets ─────────────────────────────────────*/

// resolveSecrets replaces every `vault:path#key` string in k.
func resolveSecrets(ctx context.Context, k *koanf.Koanf) error {
	var refs []string
	for _, key := range k.Keys() {
		if s, ok := k.Get(key).(string); ok && strings.HasPrefix(s, vault.Prefix) {
			refs = append(refs, key)
		}
	}
	if len(refs) == 0 {
		return nil
	}
	sort.Strings(refs)

	sec, err := dialSecrets(ctx)
	if err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	for _, key := range refs {
		path, field, err := vault.ParseRef(k.String(key))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		val, err := sec.GetKV(ctx, path, field, secretTTL)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		zap.S().Debugw("config secret resolved", "key", key, "path", path)
	}
	return nil
}

/*──────────────────────────── defaults ────────────────────────────────────*/

func applyDefaults(c *Config) {
	setDur := func(d *time.Duration, def time.Duration) {
		if *d == 0 {
			*d = def
		}
	}
	setDur(&c.HTTP.ReadTimeout, 10*time.Second)
	// Generation calls can take minutes; the write deadline has to outlast them.
	setDur(&c.HTTP.WriteTimeout, 5*time.Minute)
	setDur(&c.HTTP.IdleTimeout, 60*time.Second)
	setDur(&c.HTTP.ShutdownTimeout, 15*time.Second)
	setDur(&c.Upstream.Timeout, 4*time.Minute)

	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "https://api.v0.dev"
	}
	if c.Deployer.VersionPolicy == "" {
		c.Deployer.VersionPolicy = "resolve"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
