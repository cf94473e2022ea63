// Package config loads server configuration from defaults, an optional
// YAML file, and CLOB_-prefixed environment variables, in increasing
// precedence.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Kafka struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Outbox struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type Config struct {
	HTTPAddr     string `mapstructure:"http_addr"`
	WireAddr     string `mapstructure:"wire_addr"` // empty disables the binary listener
	PoolCapacity int    `mapstructure:"pool_capacity"`
	DepthLimit   int    `mapstructure:"depth_limit"`
	RecentTrades int    `mapstructure:"recent_trades"`
	Seed         bool   `mapstructure:"seed"`
	Dev          bool   `mapstructure:"dev"`

	Kafka  Kafka  `mapstructure:"kafka"`
	Outbox Outbox `mapstructure:"outbox"`
}

// Load reads configuration; path "" skips the file layer.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("wire_addr", "")
	v.SetDefault("pool_capacity", 100_000)
	v.SetDefault("depth_limit", 10)
	v.SetDefault("recent_trades", 128)
	v.SetDefault("seed", false)
	v.SetDefault("dev", false)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "clob.marketdata")
	v.SetDefault("outbox.enabled", false)
	v.SetDefault("outbox.dir", "./outbox_data")

	v.SetEnvPrefix("CLOB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
