package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Version     string `envconfig:"VERSION" default:"dev"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	RedisAddr           string `envconfig:"REDIS_ADDR" default:""`
	RedisPassword       string `envconfig:"REDIS_PASSWORD" default:""`
	AuthEventsChannel   string `envconfig:"AUTH_EVENTS_CHANNEL" default:"auth.identity"`
	ProfileEventChannel string `envconfig:"PROFILE_EVENTS_CHANNEL" default:"profiles.changed"`

	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer   string `envconfig:"JWT_ISSUER" default:""`
	JWTAudience string `envconfig:"JWT_AUDIENCE" default:"authenticated"`

	BaseDomain     string   `envconfig:"BASE_DOMAIN" default:"storehaus.io"`
	ReservedLabels []string `envconfig:"RESERVED_SUBDOMAINS" default:"www,app,api"`
	DevHosts       []string `envconfig:"DEV_HOSTS" default:""`

	LoginPath      string `envconfig:"LOGIN_PATH" default:"/login"`
	HomePath       string `envconfig:"HOME_PATH" default:"/"`
	OnboardingPath string `envconfig:"ONBOARDING_PATH" default:"/provider/onboarding"`

	RoleCacheTTL      time.Duration `envconfig:"ROLE_CACHE_TTL" default:"5m"`
	RoleCacheSize     int           `envconfig:"ROLE_CACHE_SIZE" default:"10000"`
	RoleMaxRetries    uint          `envconfig:"ROLE_MAX_RETRIES" default:"2"`
	RoleRetryInitial  time.Duration `envconfig:"ROLE_RETRY_INITIAL" default:"200ms"`
	RoleRetryMax      time.Duration `envconfig:"ROLE_RETRY_MAX" default:"2s"`
	RoleRetryFactor   float64       `envconfig:"ROLE_RETRY_FACTOR" default:"2"`
	ResolutionTimeout time.Duration `envconfig:"RESOLUTION_TIMEOUT" default:"5s"`
	LookupTimeout     time.Duration `envconfig:"LOOKUP_TIMEOUT" default:"3s"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
