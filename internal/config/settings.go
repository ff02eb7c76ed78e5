package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings configure the process hosting the engine, not game balance.
type Settings struct {
	LogLevel     string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Dev          bool          `mapstructure:"dev"`
	CatalogPath  string        `mapstructure:"catalog_path"`
	WorldPath    string        `mapstructure:"world_path"`
	TickInterval time.Duration `mapstructure:"tick_interval" validate:"gt=0"`
	// Seed fixes the RNG when non-zero.
	Seed        uint64          `mapstructure:"seed"`
	MetricsAddr string          `mapstructure:"metrics_addr"`
	Storage     StorageSettings `mapstructure:"storage"`
}

type StorageSettings struct {
	Backend       string `mapstructure:"backend" validate:"oneof=memory file sqlite redis"`
	DataDir       string `mapstructure:"data_dir" validate:"required_if=Backend file"`
	SQLitePath    string `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	Namespace     string `mapstructure:"namespace" validate:"required"`
	Key           string `mapstructure:"key" validate:"required"`
}

// EnvPrefix namespaces environment overrides, e.g. DAILYQUESTS_STORAGE_BACKEND.
const EnvPrefix = "DAILYQUESTS"

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("dev", false)
	v.SetDefault("catalog_path", "configs/catalog.yaml")
	v.SetDefault("world_path", "configs/world.yaml")
	v.SetDefault("tick_interval", "60s")
	v.SetDefault("seed", 0)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.sqlite_path", "data/saves.db")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.namespace", "DailyQuests")
	v.SetDefault("storage.key", "Data")
}

// LoadSettings reads an optional settings file, then applies environment overrides.
// A path that does not exist leaves the defaults in place.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return &s, nil
}
