// Package config is for app wide settings that are resolved through
// Viper (see: /cmd). Precedence is Viper's own, lowest first: built-in
// defaults, the config file, environment variables (NPGE_ prefix,
// uppercase), command line flags bound by cmd, explicit Set calls.
// Environment variables therefore override the config file, and Set
// overrides flags.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// global option defaults; every key can be referenced from processor
// options as "$KEY"
var defaults = map[string]interface{}{
	// number of parallel workers, -1 means all cores
	"WORKERS": 1,

	// anchor k-mer length
	"ANCHOR_SIZE": 20,

	// minimum acceptable fragment length
	"MIN_LENGTH": 100,

	// minimum acceptable block identity
	"MIN_IDENTITY": 0.9,

	// maximum acceptable block spreading
	"MAX_SPREADING": 0.2,

	// maximum share of gap columns in a block
	"MAX_GAPS": 0.2,

	// pair aligner settings
	"ALIGNER_BATCH":       100,
	"ALIGNER_GAP_RANGE":   5,
	"ALIGNER_MAX_ERRORS":  5,
	"ALIGNER_GAP_PENALTY": 2,

	// false positive rate of the anchor bloom filter
	"BLOOM_FP_RATE": 0.01,

	// keep temporary files for inspection
	"DEBUG_TMP_FILES": false,
}

func init() {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
	viper.SetEnvPrefix("NPGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Load reads the config file; an empty path means no file
func Load(path string) error {
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %v", path, err)
	}
	return nil
}

// Has reports whether the key is known to the registry
func Has(key string) bool {
	return viper.IsSet(key)
}

// Get returns the raw value of a key
func Get(key string) interface{} {
	return viper.Get(key)
}

// GetInt returns an integer setting
func GetInt(key string) int { return viper.GetInt(key) }

// GetFloat returns a decimal setting
func GetFloat(key string) float64 { return viper.GetFloat64(key) }

// GetBool returns a boolean setting
func GetBool(key string) bool { return viper.GetBool(key) }

// GetString returns a string setting
func GetString(key string) string { return viper.GetString(key) }

// Set overrides a key for the rest of the process
func Set(key string, value interface{}) {
	viper.Set(key, value)
}

// Dump renders the current configuration, one KEY = value per line
func Dump() string {
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s = %v\n", key, viper.Get(key))
	}
	return b.String()
}
