// Package config loads the engine configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Symbol string `yaml:"symbol"`
	Listen string `yaml:"listen"`

	WAL struct {
		Dir         string `yaml:"dir"`
		SegmentSize int64  `yaml:"segment_size"`
	} `yaml:"wal"`

	Outbox struct {
		Dir string `yaml:"dir"`
	} `yaml:"outbox"`

	Kafka struct {
		Brokers          []string `yaml:"brokers"`
		ReportsTopic     string   `yaml:"reports_topic"`
		TapeTopic        string   `yaml:"tape_topic"`
		ReportIntervalMS int      `yaml:"report_interval_ms"`
	} `yaml:"kafka"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// Load reads the yaml file at path and applies env overrides
// (MATCHBOOK_LISTEN, MATCHBOOK_BROKERS) so deployments can retarget
// without editing the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if v := os.Getenv("MATCHBOOK_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("MATCHBOOK_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}

	cfg.applyDefaults()

	if cfg.Symbol == "" {
		return nil, fmt.Errorf("config: symbol is required")
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":50051"
	}
	if c.WAL.Dir == "" {
		c.WAL.Dir = "./data/wal"
	}
	if c.Outbox.Dir == "" {
		c.Outbox.Dir = "./data/outbox"
	}
	if c.Kafka.ReportsTopic == "" {
		c.Kafka.ReportsTopic = "execution-reports"
	}
	if c.Kafka.TapeTopic == "" {
		c.Kafka.TapeTopic = "trade-tape"
	}
	if c.Kafka.ReportIntervalMS <= 0 {
		c.Kafka.ReportIntervalMS = 250
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
