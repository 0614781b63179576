package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset    string           `yaml:"dataset" mapstructure:"dataset"`
	Langs      LangsConfig      `yaml:"langs" mapstructure:"langs"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	Wiki       WikiConfig       `yaml:"wiki" mapstructure:"wiki"`
	Download   DownloadConfig   `yaml:"download" mapstructure:"download"`
	Paragraphs ParagraphsConfig `yaml:"paragraphs" mapstructure:"paragraphs"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// LangsConfig names the source/pivot/target language triple. The pipeline
// keeps an item only when the target language has a linked page; the pivot
// column is best-effort.
type LangsConfig struct {
	Source string `yaml:"source" mapstructure:"source"`
	Pivot  string `yaml:"pivot" mapstructure:"pivot"`
	Target string `yaml:"target" mapstructure:"target"`
}

// ExtractConfig configures the enrichment pipeline run.
type ExtractConfig struct {
	Input   string        `yaml:"input" mapstructure:"input"`
	Output  string        `yaml:"output" mapstructure:"output"`
	Workers int           `yaml:"workers" mapstructure:"workers"`
	FanOut  int           `yaml:"fanout" mapstructure:"fanout"`
	Pause   time.Duration `yaml:"pause" mapstructure:"pause"`
	MaxKeep int           `yaml:"max_keep" mapstructure:"max_keep"`
}

// WikiConfig configures the MediaWiki API client.
type WikiConfig struct {
	// APIURL is a format string taking the language code, e.g.
	// "https://%s.wikipedia.org/w/api.php".
	APIURL  string        `yaml:"api_url" mapstructure:"api_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Rate caps outbound requests per second across all workers.
	// Zero disables the shared limiter; each worker still sleeps
	// extract.pause after its calls.
	Rate  float64 `yaml:"rate" mapstructure:"rate"`
	Burst int     `yaml:"burst" mapstructure:"burst"`
}

// DownloadConfig configures the bulk corpus download.
type DownloadConfig struct {
	Output    string `yaml:"output" mapstructure:"output"`
	Workers   int    `yaml:"workers" mapstructure:"workers"`
	Overwrite bool   `yaml:"overwrite" mapstructure:"overwrite"`
}

// ParagraphsConfig configures paragraph extraction from the HTML corpus.
type ParagraphsConfig struct {
	Root     string   `yaml:"root" mapstructure:"root"`
	Langs    []string `yaml:"langs" mapstructure:"langs"`
	Output   string   `yaml:"output" mapstructure:"output"`
	Jobs     int      `yaml:"jobs" mapstructure:"jobs"`
	MinChars int      `yaml:"min_chars" mapstructure:"min_chars"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CROSSQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dataset", "natural_questions")
	v.SetDefault("langs.source", "en")
	v.SetDefault("langs.pivot", "it")
	v.SetDefault("langs.target", "sc")
	v.SetDefault("extract.output", "nq_sc.csv")
	v.SetDefault("extract.workers", 8)
	v.SetDefault("extract.fanout", 4)
	v.SetDefault("extract.pause", "50ms")
	v.SetDefault("extract.max_keep", 0)
	v.SetDefault("wiki.api_url", "https://%s.wikipedia.org/w/api.php")
	v.SetDefault("wiki.timeout", "10s")
	v.SetDefault("wiki.rate", 0.0)
	v.SetDefault("wiki.burst", 1)
	v.SetDefault("download.output", "corpus")
	v.SetDefault("download.workers", 16)
	v.SetDefault("paragraphs.root", "corpus")
	v.SetDefault("paragraphs.langs", []string{"en", "it", "sc"})
	v.SetDefault("paragraphs.output", "paragraphs.jsonl")
	v.SetDefault("paragraphs.jobs", 8)
	v.SetDefault("paragraphs.min_chars", 40)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
