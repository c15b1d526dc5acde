package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort string

	DBDriver   string // mysql | sqlite
	SQLitePath string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	SweepWorkers     int
	SweepLockTTLSecs int
	MaxLoanAmount    decimal.Decimal
	DefaultDailyRate decimal.Decimal
}

func defaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("SQLITE_PATH", "microloan.db")
	v.SetDefault("MYSQL_HOST", "mysql")
	v.SetDefault("MYSQL_PORT", "3306")
	v.SetDefault("MYSQL_DB", "microloan")
	v.SetDefault("MYSQL_USER", "microloan")
	v.SetDefault("MYSQL_PASS", "microloan")
	v.SetDefault("REDIS_ADDR", "redis:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IDEMPOTENCY_TTL_SECONDS", 300)
	v.SetDefault("SWEEP_WORKERS", 4)
	v.SetDefault("SWEEP_LOCK_TTL_SECONDS", 300)
	v.SetDefault("MAX_LOAN_AMOUNT", "20000")
	v.SetDefault("DEFAULT_DAILY_RATE", "0.001")
}

// Load reads the environment over the built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	defaults(v)
	// REDIS_ADDR= turns redis off, so an empty value must not fall back
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	c := &Config{
		AppPort:    v.GetString("APP_PORT"),
		DBDriver:   v.GetString("DB_DRIVER"),
		SQLitePath: v.GetString("SQLITE_PATH"),
		MySQLHost:  v.GetString("MYSQL_HOST"),
		MySQLPort:  v.GetString("MYSQL_PORT"),
		MySQLDB:    v.GetString("MYSQL_DB"),
		MySQLUser:  v.GetString("MYSQL_USER"),
		MySQLPass:  v.GetString("MYSQL_PASS"),

		RedisAddr:    v.GetString("REDIS_ADDR"),
		RedisDB:      v.GetInt("REDIS_DB"),
		IdempTTLSecs: v.GetInt("IDEMPOTENCY_TTL_SECONDS"),

		SweepWorkers:     v.GetInt("SWEEP_WORKERS"),
		SweepLockTTLSecs: v.GetInt("SWEEP_LOCK_TTL_SECONDS"),
	}

	var err error
	if c.MaxLoanAmount, err = decimal.NewFromString(v.GetString("MAX_LOAN_AMOUNT")); err != nil {
		return nil, fmt.Errorf("invalid MAX_LOAN_AMOUNT: %w", err)
	}
	if c.DefaultDailyRate, err = decimal.NewFromString(v.GetString("DEFAULT_DAILY_RATE")); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_DAILY_RATE: %w", err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if _, err := net.LookupPort("tcp", c.AppPort); err != nil {
		return fmt.Errorf("invalid APP_PORT %q: %w", c.AppPort, err)
	}
	if c.SweepWorkers <= 0 {
		return fmt.Errorf("SWEEP_WORKERS must be positive, got %d", c.SweepWorkers)
	}
	if c.SweepLockTTLSecs <= 0 || c.IdempTTLSecs <= 0 {
		return errors.New("SWEEP_LOCK_TTL_SECONDS and IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	if !c.MaxLoanAmount.IsPositive() {
		return errors.New("MAX_LOAN_AMOUNT must be positive")
	}
	if c.DefaultDailyRate.IsNegative() || c.DefaultDailyRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.New("DEFAULT_DAILY_RATE must be in [0, 1)")
	}
	if !c.DefaultDailyRate.Equal(c.DefaultDailyRate.Round(6)) {
		return errors.New("DEFAULT_DAILY_RATE must have at most 6 decimal places")
	}
	return nil
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) SweepLockTTL() time.Duration { return time.Duration(c.SweepLockTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
