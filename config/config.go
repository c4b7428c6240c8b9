package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yummyfi/yummyfi-backend/lifecycle"
)

// Config holds every setting of the service. Values come from, in rising
// priority: defaults, the YAML file named by CONFIG_FILE, .env, the process
// environment.
type Config struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	AdminEmails []string      `yaml:"admin_emails"`

	BusinessTZ           string   `yaml:"business_tz"`
	CustomerCancelStates []string `yaml:"customer_cancel_states"`

	SheetsWebAppURL string `yaml:"sheets_web_app_url"`
	SheetsURL       string `yaml:"sheets_url"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	MonitorInterval   time.Duration `yaml:"monitor_interval"`
	SweepInterval     time.Duration `yaml:"sweep_interval"`
	RequestsPerSecond int           `yaml:"requests_per_second"`

	AllowedOrigins []string `yaml:"allowed_origins"`
	FrontendDir    string   `yaml:"frontend_dir"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func Defaults() *Config {
	return &Config{
		Port:                 "8080",
		GinMode:              "debug",
		DBDriver:             "sqlite",
		DBDSN:                "yummyfi.db",
		TokenTTL:             24 * time.Hour,
		BusinessTZ:           "Asia/Kolkata",
		CustomerCancelStates: []string{"pending"},
		MonitorInterval:      500 * time.Millisecond,
		SweepInterval:        time.Minute,
		RequestsPerSecond:    50,
		AllowedOrigins:       []string{"*"},
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// Load reads .env (if present), the optional YAML file and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.GinMode, "GIN_MODE")
	setString(&c.DBDriver, "DB_DRIVER")
	setString(&c.DBDSN, "DB_DSN")
	setString(&c.JWTSecret, "JWT_SECRET")
	setList(&c.AdminEmails, "ADMIN_EMAILS")
	setString(&c.BusinessTZ, "BUSINESS_TZ")
	setList(&c.CustomerCancelStates, "CUSTOMER_CANCEL_STATES")
	setString(&c.SheetsWebAppURL, "SHEETS_WEB_APP_URL")
	setString(&c.SheetsURL, "SHEETS_URL")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setList(&c.AllowedOrigins, "ALLOWED_ORIGINS")
	setString(&c.FrontendDir, "FRONTEND_DIR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	for key, dst := range map[string]*time.Duration{
		"TOKEN_TTL":        &c.TokenTTL,
		"MONITOR_INTERVAL": &c.MonitorInterval,
		"SWEEP_INTERVAL":   &c.SweepInterval,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	for key, dst := range map[string]*int{
		"REDIS_DB":            &c.RedisDB,
		"REQUESTS_PER_SECOND": &c.RequestsPerSecond,
	} {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	return nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.CancelPolicy(); err != nil {
		return err
	}
	switch c.DBDriver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or mysql, got %q", c.DBDriver)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.MonitorInterval <= 0 || c.SweepInterval <= 0 {
		return errors.New("MONITOR_INTERVAL and SWEEP_INTERVAL must be positive")
	}
	return nil
}

// Location is the business time zone. The 4 AM boundary is taken in it.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.BusinessTZ)
	if err != nil {
		return nil, fmt.Errorf("BUSINESS_TZ: %w", err)
	}
	return loc, nil
}

// CancelPolicy builds the cancel rules with the configured customer states.
// An empty list means customers cannot cancel at all.
func (c *Config) CancelPolicy() (lifecycle.CancelPolicy, error) {
	policy := lifecycle.DefaultCancelPolicy()
	states, err := lifecycle.ParseStatusList(strings.Join(c.CustomerCancelStates, ","))
	if err != nil {
		return policy, fmt.Errorf("CUSTOMER_CANCEL_STATES: %w", err)
	}
	policy.User = states
	return policy, nil
}

// OpenDB connects gorm to the configured driver.
func OpenDB(c *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch c.DBDriver {
	case "mysql":
		dialector = mysql.Open(c.DBDSN)
	default:
		dialector = sqlite.Open(c.DBDSN)
	}

	level := logger.Warn
	if c.GinMode == "debug" {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", c.DBDriver, err)
	}
	if c.DBDriver == "sqlite" {
		// SQLite allows one writer; serialise through a single connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
