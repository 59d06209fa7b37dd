package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Gateway       GatewayConfig       `mapstructure:"gateway"`
	Enrolment     EnrolmentConfig     `mapstructure:"enrolment"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

// GatewayConfig selects the PayPal validation endpoint flavor and bounds the
// outbound re-validation call.
type GatewayConfig struct {
	UseSandbox bool          `mapstructure:"use_sandbox"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// EnrolmentConfig carries the installation-wide enrolment policy: the payee account
// incoming notifications must name, the fallback cost when an instance has no
// price, the role granted on enrolment, and the per-audience mail toggles.
type EnrolmentConfig struct {
	PayeeBusiness  string  `mapstructure:"payee_business" validate:"required"`
	DefaultCost    float64 `mapstructure:"default_cost"`
	DefaultRoleID  int64   `mapstructure:"default_role_id"`
	MailFromUserID int64   `mapstructure:"mail_from_user_id"`
	NotifyStudents bool    `mapstructure:"notify_students"`
	NotifyTeachers bool    `mapstructure:"notify_teachers"`
	NotifyAdmins   bool    `mapstructure:"notify_admins"`
	Language       string  `mapstructure:"language"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a Config purely from environment variables, used
// for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("SERVER_ALLOWED_ORIGINS", ""),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Database: DatabaseConfig{
			Source:          getEnv("DATABASE_SOURCE", ""),
			MaxOpenConns:    getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Gateway: GatewayConfig{
			UseSandbox: getEnvAsBool("GATEWAY_USE_SANDBOX", false),
			Timeout:    30 * time.Second,
		},
		Enrolment: EnrolmentConfig{
			PayeeBusiness:  getEnv("ENROLMENT_PAYEE_BUSINESS", ""),
			DefaultCost:    0,
			DefaultRoleID:  int64(getEnvAsInt("ENROLMENT_DEFAULT_ROLE_ID", 5)),
			MailFromUserID: int64(getEnvAsInt("ENROLMENT_MAIL_FROM_USER_ID", 1)),
			NotifyStudents: getEnvAsBool("ENROLMENT_NOTIFY_STUDENTS", true),
			NotifyTeachers: getEnvAsBool("ENROLMENT_NOTIFY_TEACHERS", true),
			NotifyAdmins:   getEnvAsBool("ENROLMENT_NOTIFY_ADMINS", true),
			Language:       getEnv("ENROLMENT_LANGUAGE", "en"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("gateway config: %v", err))
	}

	if err := c.Enrolment.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("enrolment config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *GatewayConfig) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	return nil
}

func (c *EnrolmentConfig) Validate() error {
	if c.PayeeBusiness == "" {
		return errors.New("payee_business is required")
	}
	if c.DefaultCost < 0 {
		return errors.New("default_cost cannot be negative")
	}
	if c.DefaultRoleID <= 0 {
		return errors.New("default_role_id must be positive")
	}
	return nil
}
