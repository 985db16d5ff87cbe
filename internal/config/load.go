package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultPort is used when PORT is unset or empty.
	DefaultPort = "8080"

	envPrefix     = "HELLOWORLD"
	configPathEnv = "HELLOWORLD_CONFIG"
)

// Config defines the app settings.
type Config struct {
	Port string    `mapstructure:"port"`
	Log  LogConfig `mapstructure:"log"`
}

// LogConfig controls where and how the logger writes. MaxSize is in
// megabytes, MaxAge in days.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	Mode       string `mapstructure:"mode" validate:"oneof=console file both"`
	FilePath   string `mapstructure:"file_path" validate:"required_unless=Mode console"`
	MaxSize    int    `mapstructure:"max_size" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// searchPaths are tried in order when HELLOWORLD_CONFIG is not set.
var searchPaths = []string{
	"helloworld.yaml",
	"helloworld.yml",
	filepath.Join("configs", "helloworld.yaml"),
	filepath.Join("configs", "helloworld.yml"),
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.mode", "console")
	v.SetDefault("log.file_path", "logs/app.log")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 10)
	v.SetDefault("log.max_age", 5)
	v.SetDefault("log.compress", true)
}

// Load builds the Config from defaults, an optional YAML file and the
// environment. An empty path means "look in the usual places"; a missing
// file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		values, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(values); err != nil {
			return nil, fmt.Errorf("failed to merge config: %w", err)
		}
	}

	// PORT is read bare, everything else is namespaced.
	if err := v.BindEnv("port", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind PORT: %w", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}

	cfg.Log.Mode = strings.ToLower(cfg.Log.Mode)
	if err := validator.New().Struct(cfg.Log); err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}

	return &cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(configPathEnv); p != "" {
		return p
	}
	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func readFile(path string) (map[string]interface{}, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	values := map[string]interface{}{}
	if err := yaml.Unmarshal(file, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return values, nil
}
