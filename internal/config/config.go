package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Scheduler  SchedulerConfig
	Task       TaskConfig
	Repair     RepairConfig
	Topup      TopupConfig
	Withdrawal WithdrawalConfig
	Referral   ReferralConfig
	Events     EventsConfig
	JWT        JWTConfig
}

type ServerConfig struct {
	Port string
}

type LogConfig struct {
	Env   string // production or development
	Level string
}

// SchedulerConfig controls where the task-quota day starts.
type SchedulerConfig struct {
	Timezone string // IANA name ("Asia/Karachi") or fixed offset ("+05:00")
}

type TaskConfig struct {
	MinWatchRatio float64
}

type RepairConfig struct {
	Schedule       string
	GracePeriod    time.Duration
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type TopupConfig struct {
	BonusPercent float64
}

type WithdrawalConfig struct {
	MinAmount int64
}

type ReferralConfig struct {
	InviteBaseURL string
}

type JWTConfig struct {
	SecretKey   string
	ExpiryHours int
}

type EventsConfig struct {
	Channel    string
	RetryQueue string
}

// Init reads .env and an optional config.yaml into viper and binds the environment.
func Init() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("config: .env not loaded: %v\n", err)
	}

	viper.SetConfigFile("config.yaml")
	if err := viper.MergeInConfig(); err != nil {
		fmt.Printf("config: config.yaml not loaded: %v\n", err)
	}

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("log.env", "LOG_ENV")
	viper.BindEnv("log.level", "LOG_LEVEL")
	viper.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")
}

// SetDefaults registers every default. Tests call it without Init.
func SetDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("log.env", "production")
	viper.SetDefault("log.level", "info")

	viper.SetDefault("scheduler.timezone", "Asia/Karachi")
	viper.SetDefault("task.min_watch_ratio", 0.9)

	viper.SetDefault("repair.schedule", "@every 5m")
	viper.SetDefault("repair.grace_period", 2*time.Minute)
	viper.SetDefault("repair.batch_size", 100)
	viper.SetDefault("repair.max_attempts", 8)
	viper.SetDefault("repair.initial_backoff", 30*time.Second)
	viper.SetDefault("repair.max_backoff", 30*time.Minute)

	viper.SetDefault("topup.bonus_percent", 0)
	viper.SetDefault("withdrawal.min_amount", 100)
	viper.SetDefault("referral.invite_base_url", "https://localhost:3000/register")

	viper.SetDefault("events.channel", "events.ledger")
	viper.SetDefault("events.retry_queue", "commission_retry_queue")

	viper.SetDefault("jwt.expiry_hours", 24)

	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("argon2.salt_length", 16)
}

// Load returns the typed configuration from viper.
func Load() *Config {
	SetDefaults()

	return &Config{
		Server: ServerConfig{Port: viper.GetString("server.port")},
		Log: LogConfig{
			Env:   viper.GetString("log.env"),
			Level: viper.GetString("log.level"),
		},
		Scheduler: SchedulerConfig{Timezone: viper.GetString("scheduler.timezone")},
		Task:      TaskConfig{MinWatchRatio: viper.GetFloat64("task.min_watch_ratio")},
		Repair: RepairConfig{
			Schedule:       viper.GetString("repair.schedule"),
			GracePeriod:    viper.GetDuration("repair.grace_period"),
			BatchSize:      viper.GetInt("repair.batch_size"),
			MaxAttempts:    viper.GetInt("repair.max_attempts"),
			InitialBackoff: viper.GetDuration("repair.initial_backoff"),
			MaxBackoff:     viper.GetDuration("repair.max_backoff"),
		},
		Topup:      TopupConfig{BonusPercent: viper.GetFloat64("topup.bonus_percent")},
		Withdrawal: WithdrawalConfig{MinAmount: viper.GetInt64("withdrawal.min_amount")},
		Referral:   ReferralConfig{InviteBaseURL: viper.GetString("referral.invite_base_url")},
		Events: EventsConfig{
			Channel:    viper.GetString("events.channel"),
			RetryQueue: viper.GetString("events.retry_queue"),
		},
		JWT: JWTConfig{
			SecretKey:   viper.GetString("jwt.secret_key"),
			ExpiryHours: viper.GetInt("jwt.expiry_hours"),
		},
	}
}

// Validate rejects settings the server must not start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.SecretKey) == "" {
		return errors.New("jwt.secret_key (JWT_SECRET_KEY) must be set")
	}
	if c.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("jwt.expiry_hours must be positive, got %d", c.JWT.ExpiryHours)
	}
	return nil
}

// Location resolves the scheduler timezone. Fixed offsets like "+05:00" or "-03:30"
// are accepted alongside IANA names.
func (c SchedulerConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		return time.UTC, nil
	}
	if tz[0] == '+' || tz[0] == '-' {
		t, err := time.Parse("-07:00", tz)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone offset %q: %w", tz, err)
		}
		_, offset := t.Zone()
		return time.FixedZone("UTC"+tz, offset), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}
