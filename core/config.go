package core

import (
	"log"
	"net"
	"net/mail"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	NotificationConfig struct {
		// SessionValidity is the total validity window of an attendance session.
		SessionValidity time.Duration `validate:"required"`
		// ReminderLeadTime is how long before expiry the reminder fires.
		ReminderLeadTime time.Duration `validate:"required"`
		MaxAttempts      int           `validate:"min=1"`
		RetryDelay       time.Duration `validate:"required"`
		SendTimeout      time.Duration `validate:"required"`
		// Scheduler selects the reminder backend.
		Scheduler string `validate:"oneof=timer queue"`
	}

	TwilioConfig struct {
		AccountSID string `mapstructure:"accountSID"`
		AuthToken  string
		FromNumber string
	}

	AfricasTalkingConfig struct {
		Username string
		ApiKey   string `mapstructure:"apiKey"`
		SenderID string
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int `mapstructure:"db"`
	}

	DatabaseConfig struct {
		Engine     string
		Name       string
		User       string
		Password   string
		Host       string
		Port       string
		DisableTLS bool `mapstructure:"disableTLS"`
	}

	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		FromEmail      string `mapstructure:"defaultFromEmail" validate:"required,email"`
		SendgridApiKey string
		RollbarToken   string

		Notification   NotificationConfig `validate:"required"`
		Twilio         TwilioConfig
		AfricasTalking AfricasTalkingConfig
		Redis          RedisConfig
		Database       DatabaseConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// URL builds the connection string of the store's database.
func (c DatabaseConfig) URL() string {
	sslMode := "require"
	if c.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   c.Engine,
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Address(),
		Path:     c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.FromEmail}
}

func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Mahudhurio")
	v.SetDefault("defaultFromEmail", "noreply@mahudhurio.dev")
	v.SetDefault("notification.sessionValidity", 4*time.Hour)
	v.SetDefault("notification.reminderLeadTime", 15*time.Minute)
	v.SetDefault("notification.maxAttempts", 3)
	v.SetDefault("notification.retryDelay", 60*time.Second)
	v.SetDefault("notification.sendTimeout", 10*time.Second)
	v.SetDefault("notification.scheduler", "timer")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case strings.ToUpper("TEST"):
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Fatalf("config.godotenv: %v", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "config.os.Stat(.env)")
	}
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	conf.Env = env

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}
