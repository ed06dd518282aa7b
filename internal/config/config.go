package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/viper"

	"github.com/vvs-tools/vvs-install/internal/install"
	"github.com/vvs-tools/vvs-install/pkg/logger"
)

//go:embed install-config.schema.json
var configSchemaJSON []byte

// Config holds the full installer configuration. Values come from defaults,
// an optional config file, environment (VVS_INSTALL_*), and flags, in that
// order of increasing precedence.
type Config struct {
	Repo    RepoConfig    `mapstructure:"repo" json:"repo"`
	Install InstallConfig `mapstructure:"install" json:"install"`
	Verify  VerifyConfig  `mapstructure:"verify" json:"verify"`
	Logging logger.Config `mapstructure:"logging" json:"logging"`
}

// RepoConfig identifies the release source.
type RepoConfig struct {
	Owner        string `mapstructure:"owner" json:"owner"`
	Name         string `mapstructure:"name" json:"name"`
	APIBase      string `mapstructure:"api_base" json:"apiBase"`
	DownloadBase string `mapstructure:"download_base" json:"downloadBase"`
	Manifest     string `mapstructure:"manifest" json:"manifest"`
}

// InstallConfig controls where the binary lands.
type InstallConfig struct {
	Dir    string `mapstructure:"dir" json:"dir"`
	Binary string `mapstructure:"binary" json:"binary"`
}

// VerifyConfig controls checksum verification. Skip is the explicit opt-out
// that replaces any silent fallback; skipping always logs a warning.
type VerifyConfig struct {
	Skip bool `mapstructure:"skip" json:"skip"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("repo.owner", "vvs-tools")
	v.SetDefault("repo.name", "vvs")
	v.SetDefault("repo.api_base", "https://api.github.com")
	v.SetDefault("repo.download_base", "https://github.com")
	v.SetDefault("repo.manifest", "checksums.txt")

	v.SetDefault("install.dir", install.DefaultDir(runtime.GOOS))
	v.SetDefault("install.binary", "vvs")

	v.SetDefault("verify.skip", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_age", 30)
	v.SetDefault("logging.max_backups", 3)
}

// Load reads configuration from the given file (optional; a missing default
// config file is fine) plus VVS_INSTALL_* environment variables, validates
// the result against the embedded schema, and returns it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vvs-install")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/vvs-install")
	}

	v.SetEnvPrefix("VVS_INSTALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the effective configuration against the embedded JSON
// Schema so a bad config file fails with field-level messages before any
// network or filesystem work happens.
func (c *Config) Validate() error {
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(configSchemaJSON))
	if err != nil {
		return fmt.Errorf("parsing embedded config schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("install-config.schema.json", schemaDoc); err != nil {
		return fmt.Errorf("loading embedded config schema: %w", err)
	}
	schema, err := compiler.Compile("install-config.schema.json")
	if err != nil {
		return fmt.Errorf("compiling embedded config schema: %w", err)
	}

	// Round-trip through JSON so the validator sees plain maps and scalars.
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config for validation: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decoding config for validation: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
