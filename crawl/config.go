package crawl

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Labels used throughout the dataset. The numeric values are what lands in
// the output CSV's label column.
const (
	LabelBenign   = 0
	LabelPhishing = 1
)

// Config holds all crawler configuration.
type Config struct {
	// BenignInput and PhishingInput are CSV files with a `url` column.
	BenignInput   string `yaml:"benign_input"`
	PhishingInput string `yaml:"phishing_input"`

	// Output is the dataset CSV. Appended to and replayed on restart.
	Output string `yaml:"output"`

	// JournalPath is the SQLite visit journal. Empty disables journaling.
	JournalPath string `yaml:"journal_path"`

	// MaxBenign and MaxPhishing cap rows per label.
	MaxBenign   int `yaml:"max_benign"`
	MaxPhishing int `yaml:"max_phishing"`

	// Concurrency is the number of pages probed in parallel.
	Concurrency int `yaml:"concurrency"`

	// RatePerSecond gates navigation starts across all workers.
	RatePerSecond float64 `yaml:"rate_per_second"`

	// NormalizeTimeout bounds the reachability probe per URL.
	NormalizeTimeout time.Duration `yaml:"normalize_timeout"`

	// Seed fixes the queue shuffle. 0 seeds from the clock.
	Seed int64 `yaml:"seed"`
}

func (c *Config) defaults() {
	if c.Output == "" {
		c.Output = "dataset.csv"
	}
	if c.MaxBenign <= 0 {
		c.MaxBenign = 500
	}
	if c.MaxPhishing <= 0 {
		c.MaxPhishing = 500
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 2
	}
	if c.NormalizeTimeout <= 0 {
		c.NormalizeTimeout = 5 * time.Second
	}
}

// LoadConfigFile reads a YAML config file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.defaults()
	return cfg, nil
}

// quota returns the row cap for label.
func (c *Config) quota(label int) int {
	if label == LabelPhishing {
		return c.MaxPhishing
	}
	return c.MaxBenign
}
