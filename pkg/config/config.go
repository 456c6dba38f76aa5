package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Etcd    EtcdConfig    `mapstructure:"etcd"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Log     LogConfig     `mapstructure:"log"`
	Dine    DineConfig    `mapstructure:"dine"`
	Console ConsoleConfig `mapstructure:"console"`
}

// ServerConfig is the gRPC listener that serves health checks.
type ServerConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Prefix      string        `mapstructure:"prefix"`
	LeaseTTL    int64         `mapstructure:"lease_ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type MongoDBConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type GatewayConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// DineConfig holds the ordering workflow settings.
type DineConfig struct {
	// ConflictPolicy is last_writer_wins or version_check.
	ConflictPolicy          string        `mapstructure:"conflict_policy"`
	PaymentMethods          []string      `mapstructure:"payment_methods"`
	Currency                string        `mapstructure:"currency"`
	GSTRate                 string        `mapstructure:"gst_rate"`
	RequireDeliveredForBill bool          `mapstructure:"require_delivered_for_bill"`
	MenuCacheTTL            time.Duration `mapstructure:"menu_cache_ttl"`
}

// ConsoleConfig selects what cmd/console runs.
type ConsoleConfig struct {
	Mode            string        `mapstructure:"mode"`
	TableID         string        `mapstructure:"table_id"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	// RequireAPI stops the console when no registered API instance is healthy.
	RequireAPI      bool          `mapstructure:"require_api"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "dine-api")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 50051)
	v.SetDefault("gateway.host", "0.0.0.0")
	v.SetDefault("gateway.port", 8080)
	v.SetDefault("etcd.endpoints", []string{"localhost:2379"})
	v.SetDefault("etcd.dial_timeout", 5)
	v.SetDefault("etcd.prefix", "/services/")
	v.SetDefault("etcd.lease_ttl", 30)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "dinein")
	v.SetDefault("mongodb.collection", "audit_logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output_paths", []string{"stdout"})
	v.SetDefault("dine.conflict_policy", "last_writer_wins")
	v.SetDefault("dine.payment_methods", []string{"UPI", "Cash", "Card"})
	v.SetDefault("dine.currency", "INR")
	v.SetDefault("dine.gst_rate", "0.18")
	v.SetDefault("dine.menu_cache_ttl", 10*time.Minute)
	v.SetDefault("console.mode", "kitchen")
	v.SetDefault("console.refresh_interval", 5*time.Second)
	v.SetDefault("console.require_api", false)
}

// Load reads the YAML file at configPath. A missing file is not an error;
// defaults and DINE_* environment variables still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("dine")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Dine.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *DineConfig) validate() error {
	switch c.ConflictPolicy {
	case "last_writer_wins", "version_check":
	default:
		return fmt.Errorf("invalid dine.conflict_policy %q", c.ConflictPolicy)
	}
	if len(c.PaymentMethods) == 0 {
		return fmt.Errorf("dine.payment_methods must not be empty")
	}
	return nil
}

func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}
