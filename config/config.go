package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	OCR          OCRConfig          `mapstructure:"ocr"`
	Verification VerificationConfig `mapstructure:"verification"`
	Log          LogConfig          `mapstructure:"log"`
	Policy       PolicyConfig       `mapstructure:"policy"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

type OCRConfig struct {
	// Engine is tesseract or paddle
	Engine         string `mapstructure:"engine"`
	TessdataPrefix string `mapstructure:"tessdata_prefix"`
	Language       string `mapstructure:"language"`
	PaddleURL      string `mapstructure:"paddle_url"`
}

type VerificationConfig struct {
	DocumentTimeout        time.Duration `mapstructure:"document_timeout"`
	RequestBudget          time.Duration `mapstructure:"request_budget"`
	MaxConcurrentDocuments int           `mapstructure:"max_concurrent_documents"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PolicyConfig struct {
	// File is an optional YAML eligibility policy
	File string `mapstructure:"file"`
}

const (
	EngineTesseract = "tesseract"
	EnginePaddle    = "paddle"
)

// EnvPrefix namespaces environment overrides, e.g. TRAVELDOC_SERVER_PORT
const EnvPrefix = "TRAVELDOC"

// New returns a viper instance with every default registered and
// environment overrides enabled.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("ocr.engine", EngineTesseract)
	v.SetDefault("ocr.tessdata_prefix", "/usr/share/tesseract-ocr/5/tessdata/")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.paddle_url", "http://localhost:8000/ocr")
	v.SetDefault("verification.document_timeout", 10*time.Second)
	v.SetDefault("verification.request_budget", 30*time.Second)
	v.SetDefault("verification.max_concurrent_documents", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("policy.file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile (or ./traveldoc.yaml when empty and present) into v
// and decodes the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("traveldoc")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.OCR.Engine {
	case EngineTesseract, EnginePaddle:
	default:
		return fmt.Errorf("unknown ocr engine %q (want %s or %s)", c.OCR.Engine, EngineTesseract, EnginePaddle)
	}
	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.New("server.port is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("server.max_upload_mb must be positive")
	}
	if c.Verification.MaxConcurrentDocuments <= 0 {
		return errors.New("verification.max_concurrent_documents must be positive")
	}
	if c.Verification.DocumentTimeout < 0 || c.Verification.RequestBudget < 0 {
		return errors.New("verification timeouts must not be negative")
	}
	return nil
}
