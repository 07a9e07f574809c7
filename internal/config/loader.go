package config

import (
	"fmt"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/db"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries the server and database settings.
type Config struct {
	Addr           string
	AllowedOrigins []string
	Database       db.Config
}

// Load reads config.yaml from configPath with environment overrides. A
// missing file is fine; defaults plus env vars apply. A .env file, when
// present, is loaded first so local development matches deployed env vars.
func Load(configPath string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:           ":8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		Database:       db.DefaultConfig(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")

	v.BindEnv("server.addr")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("server.addr") {
		cfg.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
