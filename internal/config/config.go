package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/duchm/foliogate/params"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr = ":7000"
)

type MySQLConfig struct {
	Dsn             string `mapstructure:"dsn"`
	TablePrefix     string `mapstructure:"tablePrefix"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns"`
	ConnMaxIdleTime int    `mapstructure:"connMaxIdleTime"`
	ConnMaxLifetime int    `mapstructure:"connMaxLifetime"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type MailConfig struct {
	Backend string     `mapstructure:"backend"` // "smtp" or "none"
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

// TokenConfig controls the stateless session token policy. The lifetime is
// a deployment knob: short-lived in production, long-lived elsewhere.
type TokenConfig struct {
	Secret     string        `mapstructure:"secret"`
	DevExpiry  time.Duration `mapstructure:"devExpiry"`
	ProdExpiry time.Duration `mapstructure:"prodExpiry"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

// CSRFConfig selects the backing store of the double-submit token store.
// The default memory backend assumes a single-process deployment; redis
// is for when the service runs more than one replica.
type CSRFConfig struct {
	Backend string `mapstructure:"backend"` // "memory" (default) or "redis"
}

type AuditConfig struct {
	RetentionDays int `mapstructure:"retentionDays"`
}

type Config struct {
	Debug        bool        `mapstructure:"debug"`
	Production   bool        `mapstructure:"production"`
	ListenAddr   string      `mapstructure:"listenAddr"`
	FrontendURL  string      `mapstructure:"frontendURL"` // reset links point into the admin frontend
	AllowOrigins []string    `mapstructure:"allowOrigins"`
	Token        TokenConfig `mapstructure:"token"`
	Mail         MailConfig  `mapstructure:"mail"`
	MySQL        MySQLConfig `mapstructure:"mysql"`
	Redis        RedisConfig `mapstructure:"redis"`
	CSRF         CSRFConfig  `mapstructure:"csrf"`
	Audit        AuditConfig `mapstructure:"audit"`
}

// TokenExpiry returns the session token lifetime for the active profile.
func (c *Config) TokenExpiry() time.Duration {
	if c.Production {
		if c.Token.ProdExpiry > 0 {
			return c.Token.ProdExpiry
		}
		return params.ProdTokenExpiration
	}
	if c.Token.DevExpiry > 0 {
		return c.Token.DevExpiry
	}
	return params.DevTokenExpiration
}

func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.Token.Secret == "" {
		return fmt.Errorf("missing token signing secret")
	}
	if c.CSRF.Backend == "" {
		c.CSRF.Backend = "memory"
	}
	if c.CSRF.Backend == "redis" && c.Redis.URL == "" {
		return fmt.Errorf("csrf backend is redis but no redis url is configured")
	}
	if c.Audit.RetentionDays == 0 {
		c.Audit.RetentionDays = params.DefaultAuditRetentionDays
	}
	if c.Audit.RetentionDays < params.MinAuditRetentionDays || c.Audit.RetentionDays > params.MaxAuditRetentionDays {
		return fmt.Errorf("audit retention must be between %d and %d days", params.MinAuditRetentionDays, params.MaxAuditRetentionDays)
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
