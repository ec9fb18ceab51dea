package common

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. CREDLEDGER_FABRIC_CHANNEL
const EnvPrefix = "credledger"

type Config struct {
	Fabric  FabricConfig  `yaml:"fabric"`
	DB      DBConfig      `yaml:"db"`
	Logging LoggingConfig `yaml:"logging"`
}

// FabricConfig is the connection target and identity of the gateway client
type FabricConfig struct {
	ConnectionProfile  string `yaml:"connectionProfile"  split_words:"true"`
	PeerEndpoint       string `yaml:"peerEndpoint"       split_words:"true"`
	TLSCertPath        string `yaml:"tlsCertPath"        split_words:"true"`
	HostnameOverride   string `yaml:"hostnameOverride"   split_words:"true"`
	Channel            string `yaml:"channel"`
	Chaincode          string `yaml:"chaincode"`
	MSPID              string `yaml:"mspId"`
	CertPath           string `yaml:"certPath"           split_words:"true"`
	KeyPath            string `yaml:"keyPath"            split_words:"true"`
	WalletPath         string `yaml:"walletPath"         split_words:"true"`
	IdentityLabel      string `yaml:"identityLabel"      split_words:"true"`
	EnforceTransitions bool   `yaml:"enforceTransitions" split_words:"true"`
}

// DBConfig selects the off-chain store. Path is only used by sqlite.
type DBConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslMode" split_words:"true"`
	Path     string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid config")

// DefaultConfig returns the settings used before any file or environment
// override is applied
func DefaultConfig() *Config {
	return &Config{
		Fabric: FabricConfig{
			ConnectionProfile: "connection-profile.yaml",
			Channel:           "mychannel",
			Chaincode:         "credential-cc",
			MSPID:             "UniversityMSP",
			IdentityLabel:     "appUser",
		},
		DB: DBConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			Name:     "credentials",
			SSLMode:  "disable",
			Path:     "credentials.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig applies the YAML file at path, when given, and then the
// environment on top of the defaults
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverPostgres, DriverSqlite:
	default:
		return fmt.Errorf("%w: unknown db driver %q", ErrInvalidConfig, c.DB.Driver)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Fabric.Channel == "" || c.Fabric.Chaincode == "" {
		return fmt.Errorf("%w: fabric channel and chaincode are required", ErrInvalidConfig)
	}
	return nil
}

// DSN is the lib/pq connection string
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}
