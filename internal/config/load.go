package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "FUSION_"

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"log.level":  "warn",
		"log.format": "text",

		"reader.unknown":    "strict",
		"reader.duplicates": "error",
		"reader.max_depth":  1000,

		"schemas.files": []string{},
	}
}

// Load reads configuration using a 3-layer hierarchy (highest precedence last):
//
//  1. Built-in defaults
//  2. The YAML file at path, if path is not empty
//  3. Environment variables (FUSION_ prefix)
//
// Environment keys are matched against the known keys first, so
// FUSION_READER_MAX_DEPTH maps to reader.max_depth. FUSION_SCHEMAS_FILES is
// split on the OS path list separator.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults() {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s does not exist", path)
			}
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	envLookup := buildEnvLookup(k.Keys())

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

			koanfKey, ok := envLookup[key]
			if !ok {
				koanfKey = strings.ReplaceAll(key, "_", ".")
			}
			if koanfKey == "schemas.files" {
				return koanfKey, strings.Split(value, string(os.PathListSeparator))
			}
			return koanfKey, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// buildEnvLookup maps env-style keys ("reader_max_depth") to koanf dotted
// keys ("reader.max_depth").
func buildEnvLookup(keys []string) map[string]string {
	lookup := make(map[string]string, len(keys))
	for _, key := range keys {
		lookup[strings.ReplaceAll(key, ".", "_")] = key
	}
	return lookup
}
