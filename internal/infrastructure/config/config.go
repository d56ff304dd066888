package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Scheduler SchedulerConfig
	Billing   BillingConfig
	Accounts  AccountsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration for the ops surface
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// SchedulerConfig holds the daily billing run trigger configuration
type SchedulerConfig struct {
	Enabled       bool
	RunHour       int // local hour the daily run fires
	RunMinute     int
	CheckInterval time.Duration
}

// BillingConfig holds billing run settings
type BillingConfig struct {
	SystemAdminID      string        // fallback admin when the directory is empty
	RunLeaseTTL        time.Duration // distributed run lease duration
	NotificationStream string        // redis stream the notification sink writes to
}

// AccountsConfig maps the semantic ledger accounts to the deployment's
// chart-of-accounts codes
type AccountsConfig struct {
	Receivable     string
	RentRevenue    string
	CAMRevenue     string
	LateFeeRevenue string
	Cash           string
	TDSWithholding string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with GHARBETI_ prefix (e.g., GHARBETI_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("GHARBETI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Scheduler: SchedulerConfig{
			Enabled:       v.GetBool("scheduler.enabled"),
			RunHour:       v.GetInt("scheduler.run_hour"),
			RunMinute:     v.GetInt("scheduler.run_minute"),
			CheckInterval: v.GetDuration("scheduler.check_interval"),
		},
		Billing: BillingConfig{
			SystemAdminID:      v.GetString("billing.system_admin_id"),
			RunLeaseTTL:        v.GetDuration("billing.run_lease_ttl"),
			NotificationStream: v.GetString("billing.notification_stream"),
		},
		Accounts: AccountsConfig{
			Receivable:     v.GetString("accounts.receivable"),
			RentRevenue:    v.GetString("accounts.rent_revenue"),
			CAMRevenue:     v.GetString("accounts.cam_revenue"),
			LateFeeRevenue: v.GetString("accounts.late_fee_revenue"),
			Cash:           v.GetString("accounts.cash"),
			TDSWithholding: v.GetString("accounts.tds_withholding"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "gharbeti-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "gharbeti"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Scheduler.RunHour == 0 && cfg.Scheduler.RunMinute == 0 {
		cfg.Scheduler.RunHour = 2 // 2am
	}
	if cfg.Scheduler.CheckInterval == 0 {
		cfg.Scheduler.CheckInterval = time.Minute
	}
	if cfg.Billing.RunLeaseTTL == 0 {
		cfg.Billing.RunLeaseTTL = 30 * time.Minute
	}
	if cfg.Billing.NotificationStream == "" {
		cfg.Billing.NotificationStream = "billing:notifications"
	}
	if cfg.Accounts.Receivable == "" {
		cfg.Accounts.Receivable = "1200"
	}
	if cfg.Accounts.RentRevenue == "" {
		cfg.Accounts.RentRevenue = "4000"
	}
	if cfg.Accounts.CAMRevenue == "" {
		cfg.Accounts.CAMRevenue = "4100"
	}
	if cfg.Accounts.LateFeeRevenue == "" {
		cfg.Accounts.LateFeeRevenue = "4200"
	}
	if cfg.Accounts.Cash == "" {
		cfg.Accounts.Cash = "1000"
	}
	if cfg.Accounts.TDSWithholding == "" {
		cfg.Accounts.TDSWithholding = "2300"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Scheduler.RunHour < 0 || c.Scheduler.RunHour > 23 {
		return fmt.Errorf("scheduler.run_hour must be 0..23, got %d", c.Scheduler.RunHour)
	}
	if c.Scheduler.RunMinute < 0 || c.Scheduler.RunMinute > 59 {
		return fmt.Errorf("scheduler.run_minute must be 0..59, got %d", c.Scheduler.RunMinute)
	}
	if c.Scheduler.CheckInterval < 0 {
		return fmt.Errorf("scheduler.check_interval cannot be negative")
	}
	if c.Scheduler.CheckInterval > time.Hour {
		return fmt.Errorf("scheduler.check_interval must not exceed 1h, got %s", c.Scheduler.CheckInterval)
	}
	if c.Billing.SystemAdminID != "" {
		if _, err := uuid.Parse(c.Billing.SystemAdminID); err != nil {
			return fmt.Errorf("billing.system_admin_id is not a valid UUID: %w", err)
		}
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Billing.SystemAdminID == "" {
			return fmt.Errorf("billing.system_admin_id is required in production")
		}
	}

	return nil
}

// SystemAdminUUID returns the configured system admin id, or uuid.Nil when
// none is configured
func (b *BillingConfig) SystemAdminUUID() uuid.UUID {
	if b.SystemAdminID == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(b.SystemAdminID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address for the Redis connection
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
