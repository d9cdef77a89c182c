// Package config loads the pipeline configuration from an optional YAML file
// with environment-variable overrides. Every value has a working default so a
// bare binary starts without any file present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the full pipeline configuration.
type Config struct {
	StorageDir string `yaml:"storage_dir"`

	Intake struct {
		MaxFileBytes      int64    `yaml:"max_file_bytes"`
		MaxUploadBytes    int64    `yaml:"max_upload_bytes"`
		AllowedExtensions []string `yaml:"allowed_extensions"`
	} `yaml:"intake"`

	Queue struct {
		Workers      int           `yaml:"workers"`
		MaxAttempts  int           `yaml:"max_attempts"`
		PollInterval time.Duration `yaml:"poll_interval"`
	} `yaml:"queue"`

	BankAnalysis struct {
		Timeout       time.Duration `yaml:"timeout"`
		MaxPDFBytes   int64         `yaml:"max_pdf_bytes"`
		MaxStatements int           `yaml:"max_statements"`
		ParserURL     string        `yaml:"parser_url"`
	} `yaml:"bank_analysis"`

	Features struct {
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	} `yaml:"features"`

	LLM struct {
		Provider string        `yaml:"provider"` // "openai" or "gemini"
		BaseURL  string        `yaml:"base_url"`
		Model    string        `yaml:"model"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	GST struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"gst"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{StorageDir: "data/uploads"}
	cfg.Intake.MaxFileBytes = 15 << 20
	cfg.Intake.MaxUploadBytes = 60 << 20
	cfg.Intake.AllowedExtensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".zip", ".csv", ".xlsx"}
	cfg.Queue.Workers = 4
	cfg.Queue.MaxAttempts = 2
	cfg.Queue.PollInterval = 2 * time.Second
	cfg.BankAnalysis.Timeout = 45 * time.Second
	cfg.BankAnalysis.MaxPDFBytes = 20 << 20
	cfg.BankAnalysis.MaxStatements = 6
	cfg.Features.ConfidenceThreshold = 0.5
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.Timeout = 6 * time.Second
	cfg.GST.Timeout = 10 * time.Second
	return cfg
}

// Load reads the YAML file at path (if it exists) over the defaults, then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STORAGE_DIR"); v != "" {
		cfg.StorageDir = v
	}
	if v := os.Getenv("QUEUE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Queue.Workers = n
		}
	}
	if v := os.Getenv("BANK_PARSER_URL"); v != "" {
		cfg.BankAnalysis.ParserURL = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("GST_API_URL"); v != "" {
		cfg.GST.BaseURL = v
	}
}
