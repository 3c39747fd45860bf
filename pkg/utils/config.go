package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"zweigbib/pkg/database"
)

// EnvPrefix prefixes every environment override, e.g. ZWEIGBIB_HTTP_ADDR.
const EnvPrefix = "ZWEIGBIB"

type Config struct {
	HTTPAddr      string        `mapstructure:"http_addr"`
	TCPAddr       string        `mapstructure:"tcp_addr"`
	GRPCAddr      string        `mapstructure:"grpc_addr"`
	Source        string        `mapstructure:"source"`
	DBPath        string        `mapstructure:"db_path"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFormat     string        `mapstructure:"log_format"`
	Watch         bool          `mapstructure:"watch"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	FetchAttempts int           `mapstructure:"fetch_attempts"`
}

// defaults is keyed like the YAML file.
func defaults() map[string]any {
	return map[string]any{
		"http_addr":      ":8080",
		"tcp_addr":       ":7070",
		"grpc_addr":      ":9090",
		"source":         "data/zweig_bibliography_enhanced.csv",
		"db_path":        database.DefaultConfig().Path,
		"log_level":      "info",
		"log_format":     "text",
		"watch":          false,
		"fetch_timeout":  "30s",
		"fetch_attempts": 3,
	}
}

// LoadConfig reads defaults, then the config file, then ZWEIGBIB_*
// environment variables. Without cfgFile it looks for config.yaml in the
// working directory and in $HOME/.zweigbib; a missing file is fine.
func LoadConfig(cfgFile string) (Config, error) {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.zweigbib")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DBPath = ExpandHome(cfg.DBPath)
	if cfg.FetchAttempts < 1 {
		cfg.FetchAttempts = 1
	}
	return cfg, nil
}

// DBConfig is the database configuration the file or environment asked for.
func (c Config) DBConfig() database.Config {
	return database.Config{Path: c.DBPath}
}

// WriteDefaultConfig writes the default configuration as YAML. It refuses
// to overwrite an existing file.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	data, err := yaml.Marshal(defaults())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	header := []byte("# zweigbib configuration\n# Every key can be overridden with a ZWEIGBIB_<KEY> environment variable.\n\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, path[2:])
}
