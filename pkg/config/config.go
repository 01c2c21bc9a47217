package config

// Package config provides a reusable loader for Animica node configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"animica-core/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for an Animica node. It
// mirrors the structure of the YAML files under config/.
type Config struct {
	Chain struct {
		ID      uint64 `mapstructure:"id" json:"id"`
		HRP     string `mapstructure:"hrp" json:"hrp"`
		DataDir string `mapstructure:"data_dir" json:"data_dir"`
	} `mapstructure:"chain" json:"chain"`

	Mempool struct {
		MaxTxSizeBytes  int     `mapstructure:"max_tx_size_bytes" json:"max_tx_size_bytes"`
		MaxPoolBytes    int     `mapstructure:"max_pool_bytes" json:"max_pool_bytes"`
		MaxPerSender    int     `mapstructure:"max_per_sender" json:"max_per_sender"`
		MinRBFBump      float64 `mapstructure:"min_rbf_bump" json:"min_rbf_bump"`
		OrphanTTLSec    int     `mapstructure:"orphan_ttl_seconds" json:"orphan_ttl_seconds"`
	} `mapstructure:"mempool" json:"mempool"`

	FeeWatermark struct {
		EMAHalfLifeSamples int     `mapstructure:"ema_half_life_samples" json:"ema_half_life_samples"`
		Quantile           float64 `mapstructure:"quantile" json:"quantile"`
		MaxStepUp          float64 `mapstructure:"max_step_up" json:"max_step_up"`
		MaxStepDown        float64 `mapstructure:"max_step_down" json:"max_step_down"`
		HistogramBuckets   int     `mapstructure:"histogram_buckets" json:"histogram_buckets"`
		BucketWidthWei     uint64  `mapstructure:"bucket_width_wei" json:"bucket_width_wei"`
		MinFloorWei        uint64  `mapstructure:"min_floor_wei" json:"min_floor_wei"`
	} `mapstructure:"fee_watermark" json:"fee_watermark"`

	Ban struct {
		LowFeeBanSec          int `mapstructure:"low_fee_ban_seconds" json:"low_fee_ban_seconds"`
		SpamBanSec            int `mapstructure:"spam_ban_seconds" json:"spam_ban_seconds"`
		WindowSec             int `mapstructure:"window_seconds" json:"window_seconds"`
		MaxRejectsInWindow    int `mapstructure:"max_rejects_in_window" json:"max_rejects_in_window"`
	} `mapstructure:"ban" json:"ban"`

	PoIES struct {
		PerTypeCaps   map[string]float64 `mapstructure:"per_type_caps" json:"per_type_caps"`
		GammaCap      float64            `mapstructure:"gamma_cap" json:"gamma_cap"`
		EscortQ       float64            `mapstructure:"escort_q" json:"escort_q"`
		Weights       map[string]float64 `mapstructure:"weights" json:"weights"`
		PolicyVersion uint64             `mapstructure:"policy_version" json:"policy_version"`
	} `mapstructure:"poies" json:"poies"`

	DASampling struct {
		TargetPFail float64 `mapstructure:"target_p_fail" json:"target_p_fail"`
		Approx      bool    `mapstructure:"approx" json:"approx"`
	} `mapstructure:"da_sampling" json:"da_sampling"`

	Randomness struct {
		CommitWindowSec int    `mapstructure:"commit_window_seconds" json:"commit_window_seconds"`
		RevealWindowSec int    `mapstructure:"reveal_window_seconds" json:"reveal_window_seconds"`
		VDFWindowSec    int    `mapstructure:"vdf_window_seconds" json:"vdf_window_seconds"`
		VDFModulusHex   string `mapstructure:"vdf_modulus_hex" json:"vdf_modulus_hex"`
		VDFIterations   uint64 `mapstructure:"vdf_iterations" json:"vdf_iterations"`
	} `mapstructure:"randomness" json:"randomness"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is
// loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
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

	// Nested keys map to underscored env names (chain.id -> CHAIN_ID,
	// chain.hrp -> CHAIN_HRP, chain.data_dir -> CHAIN_DATA_DIR); main loads
	// .env into the process environment first.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the ANIMICA_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ANIMICA_ENV", ""))
}

// Seconds is a small conversion helper used when wiring *_SEC config
// fields into time.Duration values expected by core's policy structs.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
