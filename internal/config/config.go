// Package config loads run configuration for the wikimunge CLI, grounded
// in panyam-templar's cmd/templar/root.go viper wiring: a config file (in
// order of precedence, a --config flag, then .wikimunge.yaml in the
// current directory, then ~/.config/wikimunge/config.yaml), overridden by
// WIKIMUNGE_*-prefixed environment variables, overridden in turn by flags
// bound through the same viper instance.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved run configuration for one wikimunge invocation.
type Config struct {
	// Language selects the embedded namespace/alias JSON (internal/namespace).
	Language string

	// CacheDir holds the page store's blob+index files.
	CacheDir string

	// Workers is the configured size of the reprocessing worker pool (§5).
	// No command reads it: the CLI does not run internal/reprocess.
	Workers int

	// InvokeTimeout is the configured bound for a single #invoke call into
	// the Lua sandbox. No command reads it: #invoke calls use a fixed
	// 10-second timeout.
	InvokeTimeout time.Duration

	// BodyCacheTTL/BodyCacheSize bound the body cache (internal/bodycache).
	BodyCacheTTL  time.Duration
	BodyCacheSize int

	// Development enables the file watcher and verbose logging.
	Development bool

	// ListenAddr is the debug HTTP server's bind address.
	ListenAddr string
}

// Defaults returns the baseline configuration applied before any file,
// environment, or flag override.
func Defaults() Config {
	return Config{
		Language:      "en",
		CacheDir:      "./wikimunge-cache",
		Workers:       4,
		InvokeTimeout: 10 * time.Second,
		BodyCacheTTL:  10 * time.Minute,
		BodyCacheSize: 64 << 20,
		Development:   false,
		ListenAddr:    ":8080",
	}
}

// Bind registers configuration flags on fs and ties them to v, so that
// flags override environment, which overrides the config file, which
// overrides Defaults().
func Bind(v *viper.Viper, fs *pflag.FlagSet) {
	fs.String("language", "en", "namespace/alias language code")
	fs.String("cache-dir", "./wikimunge-cache", "page store directory")
	fs.Int("workers", 4, "reprocessing worker pool size")
	fs.Duration("invoke-timeout", 10*time.Second, "#invoke call timeout")
	fs.Duration("body-cache-ttl", 10*time.Minute, "body cache TTL")
	fs.Int("body-cache-size", 64<<20, "body cache size bound, in bytes")
	fs.Bool("dev", false, "enable development mode (file watching, verbose logs)")
	fs.String("listen", ":8080", "debug HTTP server bind address")

	v.BindPFlags(fs)
}

// Load resolves a Config from v after the config file has been read and
// flags have been parsed, falling back to Defaults() for anything unset.
func Load(v *viper.Viper) Config {
	d := Defaults()
	get := func(key string, fallback interface{}) interface{} {
		if v.IsSet(key) {
			return v.Get(key)
		}
		return fallback
	}

	c := d
	if s, ok := get("language", d.Language).(string); ok {
		c.Language = s
	}
	if s, ok := get("cache-dir", d.CacheDir).(string); ok {
		c.CacheDir = s
	}
	c.Workers = v.GetInt("workers")
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
	c.InvokeTimeout = orDuration(v.GetDuration("invoke-timeout"), d.InvokeTimeout)
	c.BodyCacheTTL = orDuration(v.GetDuration("body-cache-ttl"), d.BodyCacheTTL)
	if n := v.GetInt("body-cache-size"); n != 0 {
		c.BodyCacheSize = n
	}
	c.Development = v.GetBool("dev")
	if s := v.GetString("listen"); s != "" {
		c.ListenAddr = s
	}
	return c
}

func orDuration(got, fallback time.Duration) time.Duration {
	if got == 0 {
		return fallback
	}
	return got
}

// InitViper wires up config-file discovery and WIKIMUNGE_* environment
// variables on v, mirroring panyam-templar's initConfig. cfgFile is the
// --config flag's value, or empty to use the default search path.
func InitViper(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if _, err := os.Stat(".wikimunge.yaml"); err == nil {
		v.SetConfigFile(".wikimunge.yaml")
	} else {
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "wikimunge"))
		}
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix("WIKIMUNGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return err
		}
	}
	return nil
}
