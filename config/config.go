package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	ServiceBus ServiceBusConfig
	Elastic    ElasticConfig
	NewRelic   NewRelicConfig
	Auth       AuthConfig
	Worker     WorkerConfig
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port int
	Mode string // debug, release, test
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServiceBusConfig holds the Azure Service Bus configuration used
// for outgoing event notifications
type ServiceBusConfig struct {
	ConnectionString string
	QueueName        string
}

// ElasticConfig holds the Elasticsearch configuration for event indexing
type ElasticConfig struct {
	Enabled  bool
	URL      string
	Username string
	Password string
	Index    string
}

// NewRelicConfig holds the New Relic configuration
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig holds the JWT authentication configuration
type AuthConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// WorkerConfig holds the background worker configuration
type WorkerConfig struct {
	NotificationInterval time.Duration
	NotificationBatch    int
}

// InitConfig initializes the configuration using Viper
func InitConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/calendariko")
		viper.SetConfigName("config")
	}

	// Environment variables such as CALENDARIKO_SERVER_PORT override server.port
	viper.SetEnvPrefix("CALENDARIKO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("No config file found, using defaults and environment variables")
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8093)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "calendariko")
	viper.SetDefault("database.password", "calendariko")
	viper.SetDefault("database.dbname", "calendariko_db")
	viper.SetDefault("database.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Service Bus defaults - no default connection string for security
	viper.SetDefault("servicebus.queuename", "event-notifications")

	// Elasticsearch defaults
	viper.SetDefault("elastic.enabled", false)
	viper.SetDefault("elastic.url", "http://localhost:9200")
	viper.SetDefault("elastic.index", "events")

	// New Relic defaults
	viper.SetDefault("newrelic.appname", "Calendariko Local")
	viper.SetDefault("newrelic.enabled", false)

	// Auth defaults - secret must come from the environment in production
	viper.SetDefault("auth.secret", "")
	viper.SetDefault("auth.accesstokenttl", "8h")
	viper.SetDefault("auth.refreshtokenttl", "168h")

	// Worker defaults
	viper.SetDefault("worker.notificationinterval", "1m")
	viper.SetDefault("worker.notificationbatch", 100)
}

// Load loads the configuration
func Load() (*Config, error) {
	serverConfig := ServerConfig{
		Port: viper.GetInt("server.port"),
		Mode: viper.GetString("server.mode"),
	}

	dbConfig := DatabaseConfig{
		Host:     viper.GetString("database.host"),
		Port:     viper.GetInt("database.port"),
		User:     viper.GetString("database.user"),
		Password: viper.GetString("database.password"),
		DBName:   viper.GetString("database.dbname"),
		SSLMode:  viper.GetString("database.sslmode"),
	}

	redisConfig := RedisConfig{
		Host:     viper.GetString("redis.host"),
		Port:     viper.GetInt("redis.port"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	}

	serviceBusConfig := ServiceBusConfig{
		ConnectionString: viper.GetString("servicebus.connectionstring"),
		QueueName:        viper.GetString("servicebus.queuename"),
	}

	elasticConfig := ElasticConfig{
		Enabled:  viper.GetBool("elastic.enabled"),
		URL:      viper.GetString("elastic.url"),
		Username: viper.GetString("elastic.username"),
		Password: viper.GetString("elastic.password"),
		Index:    viper.GetString("elastic.index"),
	}

	newRelicConfig := NewRelicConfig{
		AppName:    viper.GetString("newrelic.appname"),
		LicenseKey: viper.GetString("newrelic.licensekey"),
		Enabled:    viper.GetBool("newrelic.enabled"),
	}

	authConfig := AuthConfig{
		Secret:          viper.GetString("auth.secret"),
		AccessTokenTTL:  viper.GetDuration("auth.accesstokenttl"),
		RefreshTokenTTL: viper.GetDuration("auth.refreshtokenttl"),
	}

	workerConfig := WorkerConfig{
		NotificationInterval: viper.GetDuration("worker.notificationinterval"),
		NotificationBatch:    viper.GetInt("worker.notificationbatch"),
	}

	return &Config{
		Server:     serverConfig,
		Database:   dbConfig,
		Redis:      redisConfig,
		ServiceBus: serviceBusConfig,
		Elastic:    elasticConfig,
		NewRelic:   newRelicConfig,
		Auth:       authConfig,
		Worker:     workerConfig,
	}, nil
}
