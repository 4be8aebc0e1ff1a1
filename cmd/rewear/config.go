package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/rewear/internal/logger"
	"github.com/nkiryanov/rewear/internal/service/user"
)

const (
	defaultListenAddr     = "localhost:8000"
	defaultLoggingLevel   = logger.LevelInfo
	defaultEnvironment    = logger.EnvProduction
	defaultRequestTimeout = 5 * time.Second
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Some internal parts (like signing JWT tokens) uses symmetric encryption, so this key is used for that purpose
	SecretKey string

	// Environment
	Environment string

	// Deadline of every request including its database transaction
	RequestTimeout time.Duration

	// Points granted to every new user
	InitialPoints int64

	// Origins allowed by CORS
	CORSOrigins []string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:       defaultLoggingLevel,
		ListenAddr:     defaultListenAddr,
		Environment:    defaultEnvironment,
		RequestTimeout: defaultRequestTimeout,
		InitialPoints:  user.DefaultInitialPoints,
		CORSOrigins:    []string{"*"},
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setInt := func(o *int64) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			*o = n
			return nil
		}
	}
	setList := func(o *[]string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = strings.Split(value, ",")
			}
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":     setString(&c.ListenAddr),
		"DATABASE_URI":    setString(&c.DatabaseDSN),
		"SECRET_KEY":      setString(&c.SecretKey),
		"LOG_LEVEL":       setString(&c.LogLevel),
		"ENVIRONMENT":     setString(&c.Environment),
		"REQUEST_TIMEOUT": setDuration(&c.RequestTimeout),
		"INITIAL_POINTS":  setInt(&c.InitialPoints),
		"CORS_ORIGINS":    setList(&c.CORSOrigins),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("rewear", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.DurationVarP(&c.RequestTimeout, "request-timeout", "t", c.RequestTimeout, "Request timeout, 0 disables it")
	fs.Int64Var(&c.InitialPoints, "initial-points", c.InitialPoints, "Points granted to new users")
	fs.StringSliceVar(&c.CORSOrigins, "cors-origins", c.CORSOrigins, "Comma separated origins allowed by CORS")

	return fs.Parse(args)
}

// Check options that have no sane default
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.InitialPoints < 0 {
		errs = append(errs, errors.New("initial points must not be negative"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout must not be negative"))
	}
	return errors.Join(errs...)
}
