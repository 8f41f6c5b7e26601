package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Batch   BatchConfig   `mapstructure:"batch"`
	OCR     OCRConfig     `mapstructure:"ocr"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlConfig controls a single hospital crawl.
type CrawlConfig struct {
	TimeoutSeconds     int    `mapstructure:"timeout_seconds"`
	NavigateTimeoutSec int    `mapstructure:"navigate_timeout_seconds"`
	Headless           bool   `mapstructure:"headless"`
	MaxScrolls         int    `mapstructure:"max_scrolls"`
	ScreenshotQuality  int    `mapstructure:"screenshot_quality"`
	DebugDir           string `mapstructure:"debug_dir"`
	TempDir            string `mapstructure:"temp_dir"`
}

// BatchConfig controls the cross-hospital supervisor.
type BatchConfig struct {
	MaxWorkers      int  `mapstructure:"max_workers"`
	DelaySeconds    int  `mapstructure:"delay_seconds"`
	ContinueOnError bool `mapstructure:"continue_on_error"`
	RetryFailed     bool `mapstructure:"retry_failed"`
}

// OCRConfig names the external LLM OCR binary.
type OCRConfig struct {
	Tool           string `mapstructure:"tool"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxChunks      int    `mapstructure:"max_chunks"`
}

// StorageConfig locates the SQLite database file.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig controls lumberjack rotation.
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// Load reads the config file (explicit path, ./configs, cwd or
// ~/.clinicrawl), falling back to defaults when no file exists.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".clinicrawl"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.timeout_seconds", 60)
	v.SetDefault("crawl.navigate_timeout_seconds", 30)
	v.SetDefault("crawl.headless", true)
	v.SetDefault("crawl.max_scrolls", 15)
	v.SetDefault("crawl.screenshot_quality", 85)
	v.SetDefault("crawl.debug_dir", "debug/screenshots")
	v.SetDefault("crawl.temp_dir", "")

	v.SetDefault("batch.max_workers", 2)
	v.SetDefault("batch.delay_seconds", 1)
	v.SetDefault("batch.continue_on_error", true)
	v.SetDefault("batch.retry_failed", false)

	v.SetDefault("ocr.tool", "gemini")
	v.SetDefault("ocr.timeout_seconds", 90)
	v.SetDefault("ocr.max_chunks", 8)

	v.SetDefault("storage.path", "data/clinics.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}
