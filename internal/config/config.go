// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file, a .env
// file and environment variables.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// EncryptionKey is the 32-byte secret key, hex or base64 encoded.
	// There is no default: the server refuses to start without it.
	EncryptionKey string `json:"encryption_key"`

	// RedisAddr switches session storage to Redis when set.
	RedisAddr string `json:"redis_addr"`

	// LogLevel is the minimum zap level.
	LogLevel string `json:"log_level"`

	// Production enables Secure cookies.
	Production bool `json:"production"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`
}

// Parse parses the process arguments and environment. It exits the
// process on any error.
func Parse() *Options {
	options, err := ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("error while parsing config: %v", err)
	}
	return options
}

// ParseArgs builds Options from args, an optional .env file, the JSON
// config file and environment variables, in that order of precedence
// (later wins).
func ParseArgs(args []string) (*Options, error) {
	options := &Options{}

	fs := flag.NewFlagSet("flowerdaily", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&options.RedisAddr, "r", "", "redis address for sessions")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.BoolVar(&options.Production, "prod", false, "production mode (secure cookies)")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&options.TLSKey, "tls-key", "", "TLS key file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env file is fine; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if key := os.Getenv("ENCRYPTION_KEY"); key != "" {
		options.EncryptionKey = key
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		options.RedisAddr = addr
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		options.Production = strings.EqualFold(env, "production")
	}

	return options, nil
}

// Validate reports every configuration problem at once.
func (o *Options) Validate() error {
	var result *multierror.Error

	if o.DatabaseDSN == "" {
		result = multierror.Append(result, errors.New("database DSN is required (-d or DATABASE_DSN)"))
	}
	if _, err := o.Key(); err != nil {
		result = multierror.Append(result, err)
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		result = multierror.Append(result, errors.New("tls-cert and tls-key must be set together"))
	}

	return result.ErrorOrNil()
}

// Key decodes EncryptionKey. Both 64 hex characters and base64 of 32
// bytes are accepted.
func (o *Options) Key() ([]byte, error) {
	if o.EncryptionKey == "" {
		return nil, errors.New("encryption key is required (ENCRYPTION_KEY)")
	}
	if b, err := hex.DecodeString(o.EncryptionKey); err == nil && len(b) == 32 {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(o.EncryptionKey); err == nil && len(b) == 32 {
		return b, nil
	}
	return nil, errors.New("encryption key must be 32 bytes, hex or base64 encoded")
}
