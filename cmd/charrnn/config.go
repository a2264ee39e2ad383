package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the charrnn configuration file (~/.config/charrnn/config.yaml).
// Numeric fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	ModelPath string `yaml:"model_path"`
	VocabPath string `yaml:"vocab_path"`

	// Sampling defaults
	Temperature *float64 `yaml:"temperature"`
	Steps       *int64   `yaml:"steps"`
	Seed        *int64   `yaml:"seed"`

	// Corpus
	CorpusURL string `yaml:"corpus_url"`
	CacheDir  string `yaml:"cache_dir"`

	// Output
	StreamMode string `yaml:"stream_mode"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
	HistoryDB     string `yaml:"history_db"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "charrnn", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't
// exist or does not parse.
func LoadConfig(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

func applyModelConfig(c *cli.Command, cfg Config) {
	if cfg.ModelPath != "" && !c.IsSet("model") {
		modelPath = cfg.ModelPath
	}
}

func applyCorpusConfig(c *cli.Command, cfg Config) {
	if cfg.CorpusURL != "" && !c.IsSet("url") {
		corpusURL = cfg.CorpusURL
	}
	if cfg.CacheDir != "" && !c.IsSet("cache-dir") {
		cacheDir = cfg.CacheDir
	}
	if cfg.VocabPath != "" && !c.IsSet("vocab") {
		vocabPath = cfg.VocabPath
	}
}

// applyGenerateConfig applies config file defaults to generate command
// variables when the corresponding CLI flag was not explicitly set.
func applyGenerateConfig(c *cli.Command, cfg Config,
	temp *float64, steps *int64, seed *int64, streamMode *string, record *string,
) {
	applyModelConfig(c, cfg)
	if cfg.Temperature != nil && !c.IsSet("temp") && !c.IsSet("temperature") && !c.IsSet("t") {
		*temp = *cfg.Temperature
	}
	if cfg.Steps != nil && !c.IsSet("steps") {
		*steps = *cfg.Steps
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		*seed = *cfg.Seed
	}
	if cfg.StreamMode != "" && !c.IsSet("stream-mode") {
		*streamMode = cfg.StreamMode
	}
	if cfg.HistoryDB != "" && !c.IsSet("record") {
		*record = cfg.HistoryDB
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr, historyDB *string, temp *float64, steps *int64) {
	applyModelConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.HistoryDB != "" && !c.IsSet("history-db") {
		*historyDB = cfg.HistoryDB
	}
	if cfg.Temperature != nil && !c.IsSet("temperature") {
		*temp = *cfg.Temperature
	}
	if cfg.Steps != nil && !c.IsSet("steps") {
		*steps = *cfg.Steps
	}
}
