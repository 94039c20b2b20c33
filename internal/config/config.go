package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"turfbook/internal/civil"
)

type Config struct {
	Server struct {
		Port            int `yaml:"port"`
		ReadTimeout     int `yaml:"read_timeout_seconds"`
		WriteTimeout    int `yaml:"write_timeout_seconds"`
		ShutdownTimeout int `yaml:"shutdown_timeout_seconds"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	SMTP struct {
		Host                string `yaml:"host"`
		Port                int    `yaml:"port"`
		Username            string `yaml:"username"`
		Password            string `yaml:"password"`
		Sender              string `yaml:"sender"`
		AttemptTimeoutSecs  int    `yaml:"attempt_timeout_seconds"`
		SendIntervalSeconds int    `yaml:"send_interval_seconds"`
	} `yaml:"smtp"`

	Queue struct {
		MaxAttempts        int `yaml:"max_attempts"`
		BaseRetryDelaySecs int `yaml:"base_retry_delay_seconds"`
		InterJobDelaySecs  int `yaml:"inter_job_delay_seconds"`
	} `yaml:"queue"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	OTP struct {
		TTLMinutes    int    `yaml:"ttl_minutes"`
		AllowedSuffix string `yaml:"allowed_suffix"`
	} `yaml:"otp"`

	Booking struct {
		TimezoneOffsetMinutes int `yaml:"timezone_offset_minutes"`
	} `yaml:"booking"`

	Mail struct {
		SignatureName  string `yaml:"signature_name"`
		SignaturePhone string `yaml:"signature_phone"`
	} `yaml:"mail"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	StoragePath   string `yaml:"storage_path"`
	IntervalHours int    `yaml:"interval_hours"`
	RetentionDays int    `yaml:"retention_days"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/turfbook.db"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Booking.TimezoneOffsetMinutes == 0 {
		cfg.Booking.TimezoneOffsetMinutes = civil.DefaultOffsetMinutes
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) SMTPAttemptTimeout() time.Duration {
	if c.SMTP.AttemptTimeoutSecs <= 0 {
		return 45 * time.Second
	}
	return time.Duration(c.SMTP.AttemptTimeoutSecs) * time.Second
}

func (c *Config) SMTPSendInterval() time.Duration {
	if c.SMTP.SendIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.SMTP.SendIntervalSeconds) * time.Second
}

func (c *Config) QueueBaseRetryDelay() time.Duration {
	if c.Queue.BaseRetryDelaySecs <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.Queue.BaseRetryDelaySecs) * time.Second
}

func (c *Config) QueueInterJobDelay() time.Duration {
	if c.Queue.InterJobDelaySecs <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.Queue.InterJobDelaySecs) * time.Second
}

func (c *Config) OTPTTL() time.Duration {
	if c.OTP.TTLMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.OTP.TTLMinutes) * time.Minute
}
