package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type MQConfig struct {
	URL        string `yaml:"url"`
	Queue      string `yaml:"queue"`
	MaxRetries int64  `yaml:"max_retries"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type EmailConfig struct {
	ServerToken  string `yaml:"server_token"`
	AccountToken string `yaml:"account_token"`
	From         string `yaml:"from"`
}

type SMSConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

// UserConfig is one static directory entry. Password hashes are bcrypt.
type UserConfig struct {
	ID           string `yaml:"id"`
	Email        string `yaml:"email"`
	Phone        string `yaml:"phone"`
	PasswordHash string `yaml:"password_hash"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	MQ     MQConfig     `yaml:"mq"`
	Redis  RedisConfig  `yaml:"redis"`
	JWT    JWTConfig    `yaml:"jwt"`
	Email  EmailConfig  `yaml:"email"`
	SMS    SMSConfig    `yaml:"sms"`
	Users  []UserConfig `yaml:"users"`
}

// Load reads config.yaml (path overridable via CONFIG_PATH) and applies
// environment variable overrides on top.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	overrideFromEnv(&cfg)

	if cfg.MQ.Queue == "" {
		cfg.MQ.Queue = "notifications"
	}
	if cfg.MQ.MaxRetries <= 0 {
		cfg.MQ.MaxRetries = 5
	}

	return &cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}
	if queue := os.Getenv("MQ_QUEUE"); queue != "" {
		cfg.MQ.Queue = queue
	}
	if retries := os.Getenv("MQ_MAX_RETRIES"); retries != "" {
		if n, err := strconv.ParseInt(retries, 10, 64); err == nil {
			cfg.MQ.MaxRetries = n
		}
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.Redis.DB = n
		}
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	if token := os.Getenv("POSTMARK_SERVER_TOKEN"); token != "" {
		cfg.Email.ServerToken = token
	}
	if token := os.Getenv("POSTMARK_ACCOUNT_TOKEN"); token != "" {
		cfg.Email.AccountToken = token
	}
	if from := os.Getenv("EMAIL_FROM"); from != "" {
		cfg.Email.From = from
	}

	if sid := os.Getenv("TWILIO_ACCOUNT_SID"); sid != "" {
		cfg.SMS.AccountSID = sid
	}
	if token := os.Getenv("TWILIO_AUTH_TOKEN"); token != "" {
		cfg.SMS.AuthToken = token
	}
	if from := os.Getenv("TWILIO_PHONE_NUMBER"); from != "" {
		cfg.SMS.FromNumber = from
	}
}
