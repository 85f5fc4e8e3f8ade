package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. ATLAS_RUN_PARALLELISM.
const EnvPrefix = "ATLAS"

// DefaultPath is the config file looked up when none is given.
var DefaultPath = filepath.Join(DirName, "config.yaml")

// LoadDotEnv loads KEY=VALUE pairs from dir/.env into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration into v. Defaults come from Default(), the file at path
// (YAML or JSON) is optional unless required is set, and ATLAS_* variables override both.
func Load(v *viper.Viper, path string, required bool) (Config, error) {
	for key, value := range flatten("", Default().Settings()) {
		v.SetDefault(key, value)
	}

	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			v.SetConfigFile(path)
			v.SetConfigType(configType(path))
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		case required || !errors.Is(statErr, os.ErrNotExist):
			return Config{}, fmt.Errorf("read config: %w", statErr)
		}
	}

	// Schema validation sees file values before env strings are layered on top.
	if err := ValidateSettings(v.AllSettings()); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

func flatten(prefix string, settings map[string]any) map[string]any {
	out := map[string]any{}
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := settings[k].(map[string]any); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = settings[k]
	}
	return out
}
