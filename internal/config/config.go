package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts the "15m" / "1h" notation in yaml.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type AuthConfig struct {
	JWTSecret  string   `yaml:"jwt_secret"`
	AccessTTL  Duration `yaml:"access_ttl"`
	RefreshTTL Duration `yaml:"refresh_ttl"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Enabled  bool   `yaml:"enabled"`
}

type ScannerConfig struct {
	Interval Duration `yaml:"interval"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Auth  AuthConfig `yaml:"auth"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Telegram TelegramConfig `yaml:"telegram"`
	Scanner  ScannerConfig  `yaml:"scanner"`
}

func LoadConfig() *Config {
	path := os.Getenv("CLIENTX_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	f, err := os.Open(path)
	if err != nil {
		panic("Failed to open " + path + ": " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse " + path + ": " + err.Error())
	}

	if cfg.Auth.AccessTTL == 0 {
		cfg.Auth.AccessTTL = Duration(15 * time.Minute)
	}
	if cfg.Auth.RefreshTTL == 0 {
		cfg.Auth.RefreshTTL = Duration(30 * 24 * time.Hour)
	}
	if cfg.Scanner.Interval == 0 {
		cfg.Scanner.Interval = Duration(time.Hour)
	}
	return &cfg
}
