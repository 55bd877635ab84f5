// Package config loads the coordinator's optional YAML configuration file.
// Absence, an unrecognized schema version, or an unparsable document all
// fall back silently to hardcoded defaults: configuration is never on a
// path that can turn "no config" into an error.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const schemaVersion = 1

const (
	DefaultMaxParallel       = 1
	DefaultLockTimeoutMs     = 30_000
	DefaultLogCapacity       = 2000
	DefaultSDKEventCapacity  = 1000
)

// Config is the coordinator's tunable defaults, normally fixed constants
// but overridable per-repository.
type Config struct {
	MaxParallel      int
	LockTimeoutMs    int
	LogCapacity      int
	SDKEventCapacity int
}

// Defaults returns the hardcoded fallback configuration.
func Defaults() Config {
	return Config{
		MaxParallel:      DefaultMaxParallel,
		LockTimeoutMs:    DefaultLockTimeoutMs,
		LogCapacity:      DefaultLogCapacity,
		SDKEventCapacity: DefaultSDKEventCapacity,
	}
}

// document is the raw YAML shape, kept distinct from Config so a missing
// section can be told apart from an explicit zero.
type document struct {
	SchemaVersion int `yaml:"schemaVersion"`
	Scheduler     *struct {
		DefaultMaxParallel *int `yaml:"defaultMaxParallel"`
	} `yaml:"scheduler"`
	Lock *struct {
		DefaultTimeoutMs *int `yaml:"defaultTimeoutMs"`
	} `yaml:"lock"`
	Streams *struct {
		LogCapacity      *int `yaml:"logCapacity"`
		SDKEventCapacity *int `yaml:"sdkEventCapacity"`
	} `yaml:"streams"`
}

// Load reads path and overlays any recognized field onto Defaults(). A
// missing file, an unparsable file, or an unrecognized schemaVersion all
// return Defaults(); Load has no error result — the same "absent ⇒ does not
// exist" rule every other managed document in the core follows.
func Load(path string) Config {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return cfg
	}
	if doc.SchemaVersion != schemaVersion {
		return cfg
	}

	if doc.Scheduler != nil && doc.Scheduler.DefaultMaxParallel != nil {
		cfg.MaxParallel = *doc.Scheduler.DefaultMaxParallel
	}
	if doc.Lock != nil && doc.Lock.DefaultTimeoutMs != nil {
		cfg.LockTimeoutMs = *doc.Lock.DefaultTimeoutMs
	}
	if doc.Streams != nil {
		if doc.Streams.LogCapacity != nil {
			cfg.LogCapacity = *doc.Streams.LogCapacity
		}
		if doc.Streams.SDKEventCapacity != nil {
			cfg.SDKEventCapacity = *doc.Streams.SDKEventCapacity
		}
	}

	return cfg
}
