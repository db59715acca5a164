package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Every setting comes from the environment of the pod/container. One
// deployment serves one employee's time-clock account, as the time clock
// only exposes an employee's own records to their consultation code.

type Config struct {
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	ServerPort string `mapstructure:"SERVER_PORT"`
	IsLocalDev bool   `mapstructure:"IS_LOCAL_DEV"`
	Timezone   string `mapstructure:"TIMEZONE"`

	AWSRegion                string `mapstructure:"AWS_REGION"`
	AWSEndpoint              string `mapstructure:"AWS_ENDPOINT"`
	SubmissionSQSQueueURL    string `mapstructure:"SUBMISSION_SQS_QUEUE_URL"`
	ReminderSQSQueueURL      string `mapstructure:"REMINDER_SQS_QUEUE_URL"`
	EmailSender              string `mapstructure:"EMAIL_SENDER"`
	EmailRecipient           string `mapstructure:"EMAIL_RECIPIENT"`
	OTelEndpoint             string `mapstructure:"OTEL_ENDPOINT"`
	WorkerConcurrency        int    `mapstructure:"WORKER_CONCURRENCY"`
	SubmissionMaxConcurrency int    `mapstructure:"SUBMISSION_MAX_CONCURRENCY"`

	TimeClockURL      string `mapstructure:"TIMECLOCK_URL"`
	TimeClockUser     string `mapstructure:"TIMECLOCK_USER"`
	TimeClockPassword string `mapstructure:"TIMECLOCK_PASSWORD"`

	CalendarURL   string `mapstructure:"CALENDAR_URL"`
	CalendarCity  string `mapstructure:"CALENDAR_CITY"`
	CalendarToken string `mapstructure:"CALENDAR_TOKEN"`
}

// Location resolves Timezone, falling back to the process's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	v := viper.New()

	v.SetDefault("DB_HOST", "db")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "timebank_db")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("IS_LOCAL_DEV", false)
	v.SetDefault("TIMEZONE", "America/Sao_Paulo")

	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	v.SetDefault("SUBMISSION_SQS_QUEUE_URL", "http://localstack:4566/000000000000/submission-queue")
	v.SetDefault("REMINDER_SQS_QUEUE_URL", "http://localstack:4566/000000000000/reminder-queue")
	v.SetDefault("EMAIL_SENDER", "timebank@timebank-service.com")
	v.SetDefault("EMAIL_RECIPIENT", "")
	v.SetDefault("OTEL_ENDPOINT", "jaeger:4317")
	v.SetDefault("WORKER_CONCURRENCY", 10)
	v.SetDefault("SUBMISSION_MAX_CONCURRENCY", 4)

	v.SetDefault("TIMECLOCK_URL", "http://forponto/forponto/FptoWeb.exe")
	v.SetDefault("TIMECLOCK_USER", "")
	v.SetDefault("TIMECLOCK_PASSWORD", "")

	v.SetDefault("CALENDAR_URL", "https://api.calendario.com.br/")
	v.SetDefault("CALENDAR_CITY", "3304557")
	v.SetDefault("CALENDAR_TOKEN", "")

	// Read in environment variables that match the keys.
	v.AutomaticEnv()

	err = v.Unmarshal(&config)
	return
}
