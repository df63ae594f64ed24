package config

// Package config provides a reusable loader for the kernel's configuration
// files and environment variables (spec SPEC_FULL.md §A Ambient stack:
// Configuration). Reshaped from the teacher's node/network/consensus
// sections (kept as Config's general shape and Load/LoadFromEnv wiring of
// viper+yaml+godotenv) down to the sections a single execution session
// actually needs: call-depth/memory/substate ceilings, the fee table, the
// guest engine choice, and logging.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"substatekernel/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for one kernel session. It mirrors the
// structure of the YAML files under cmd/config.
type Config struct {
	Limits struct {
		MaxCallDepth         int `mapstructure:"max_call_depth" json:"max_call_depth"`
		MaxWasmMemoryPerTx   int `mapstructure:"max_wasm_memory_per_tx" json:"max_wasm_memory_per_tx"`
		MaxWasmMemoryPerCall int `mapstructure:"max_wasm_memory_per_call" json:"max_wasm_memory_per_call"`
		MaxSubstateReads     int `mapstructure:"max_substate_reads" json:"max_substate_reads"`
		MaxSubstateSize      int `mapstructure:"max_substate_size" json:"max_substate_size"`
		MaxEventSize         int `mapstructure:"max_event_size" json:"max_event_size"`
	} `mapstructure:"limits" json:"limits"`

	Fees struct {
		LoanAmount    uint64            `mapstructure:"loan_amount" json:"loan_amount"`
		TableOverride map[string]uint64 `mapstructure:"table_override" json:"table_override"`
	} `mapstructure:"fees" json:"fees"`

	Wasm struct {
		Engine        string `mapstructure:"engine" json:"engine"`
		CompilerDebug bool   `mapstructure:"compiler_debug" json:"compiler_debug"`
	} `mapstructure:"wasm" json:"wasm"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	_ = godotenv.Load()

	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the KERNEL_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("KERNEL_ENV", ""))
}
