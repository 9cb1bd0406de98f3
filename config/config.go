package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/configparser"
)

// Flags
var (
	modeFlag = flag.String("mode", "", "application mode: ride-service | audit-service")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
	ErrInvalidMode     = errors.New("invalid mode")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode     types.ServiceMode
		LogLevel string `env:"LOG_LEVEL" default:"INFO"`

		Database DatabaseConfig
		RabbitMQ RabbitMQConfig
		Redis    RedisConfig
		Kafka    KafkaConfig
		Services ServicesConfig
		Auth     Auth
		Matching MatchingConfig
		Share    ShareConfig
		WS       WebSocketConfig
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"ride_user"`
		Password string `env:"DATABASE_PASSWORD" default:"ride_pass"`
		Database string `env:"DATABASE_DATABASE" default:"ride_db"`

		MaxConns int32 `env:"DATABASE_MAXCONNS" default:"20"` // максимум открытых соединений
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	RedisConfig struct {
		Host       string        `env:"REDIS_HOST" default:"localhost"`
		Port       string        `env:"REDIS_PORT" default:"6379"`
		Password   string        `env:"REDIS_PASSWORD"`
		DB         int           `env:"REDIS_DB" default:"0"`
		ProfileTTL time.Duration `env:"REDIS_PROFILE_TTL" default:"5m"`
	}

	// KafkaConfig: location stream is optional, disabled by default
	KafkaConfig struct {
		Enabled       bool     `env:"KAFKA_ENABLED" default:"false"`
		Brokers       []string `env:"KAFKA_BROKERS" default:"localhost:9092"`
		LocationTopic string   `env:"KAFKA_LOCATION_TOPIC" default:"driver-locations"`
	}

	ServicesConfig struct {
		RideService  string `env:"SERVICES_RIDE_SERVICE" default:"3000"`
		AuditService string `env:"SERVICES_AUDIT_SERVICE" default:"3001"`
	}

	Auth struct {
		JWTSecret string `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
	}

	MatchingConfig struct {
		RadiusMeters   float64       `env:"MATCHING_RADIUS_METERS" default:"60000"`
		SearchInterval time.Duration `env:"MATCHING_SEARCH_INTERVAL" default:"10s"`
		MaxAttempts    int           `env:"MATCHING_MAX_ATTEMPTS" default:"20"`
	}

	ShareConfig struct {
		BaseURL string        `env:"SHARE_BASE_URL" default:"http://localhost:3000/"`
		TTL     time.Duration `env:"SHARE_TTL" default:"2h"`
	}

	WebSocketConfig struct {
		AllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" default:"*"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c DatabaseConfig) GetMaxConns() int32 {
	return c.MaxConns
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func (c RedisConfig) GetAddr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c RedisConfig) GetPassword() string {
	return c.Password
}

func (c RedisConfig) GetDB() int {
	return c.DB
}

// Port returns http port of the current mode
func (c Config) Port() string {
	if c.Mode == types.AuditService {
		return c.Services.AuditService
	}
	return c.Services.RideService
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	// Parsing flags
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(*modeFlag)

	return nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.Mode {
	case types.RideService, types.AuditService:
	default:
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidMode, c.Mode))
	}
	if c.Matching.RadiusMeters <= 0 {
		errs = append(errs, errors.New("MATCHING_RADIUS_METERS must be positive"))
	}
	if c.Matching.SearchInterval <= 0 || c.Matching.MaxAttempts <= 0 {
		errs = append(errs, errors.New("MATCHING_SEARCH_INTERVAL and MATCHING_MAX_ATTEMPTS must be positive"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS must be set when kafka is enabled"))
	}
	if !strings.HasSuffix(c.Share.BaseURL, "/") {
		c.Share.BaseURL += "/"
	}

	return errors.Join(errs...)
}

// PrintConfig prints configuration without secrets
func PrintConfig(cfg *Config) {
	fmt.Printf(`mode:        %s
log level:   %s
http port:   %s
postgres:    %s:%s/%s
rabbitmq:    %s:%s
redis:       %s
kafka:       enabled=%t brokers=%v topic=%s
matching:    radius=%.0fm interval=%s attempts=%d
share:       %s ttl=%s
`,
		cfg.Mode, cfg.LogLevel, cfg.Port(),
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database,
		cfg.RabbitMQ.Host, cfg.RabbitMQ.Port,
		cfg.Redis.GetAddr(),
		cfg.Kafka.Enabled, cfg.Kafka.Brokers, cfg.Kafka.LocationTopic,
		cfg.Matching.RadiusMeters, cfg.Matching.SearchInterval, cfg.Matching.MaxAttempts,
		cfg.Share.BaseURL, cfg.Share.TTL,
	)
}
