package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const EnvPrefix = "BACKOFFICE"

// RefreshRoutePath is where the API serves token refresh. The refresh cookie
// path must cover it or browsers never send the cookie there.
const RefreshRoutePath = "/api/auth/refresh"

var ErrMissingJWTSecret = errors.New("security.jwtsecret is required (set BACKOFFICE_SECURITY_JWTSECRET)")

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SecurityConfig struct {
	JWTSecret         string
	JWTAccessTTL      time.Duration
	JWTRefreshTTL     time.Duration
	BcryptCost        int
	CookieSecure      bool
	RefreshCookiePath string
}

type JobsConfig struct {
	Enabled              bool
	SessionSweepSchedule string
}

type SeedConfig struct {
	SuperAdminEmail    string
	SuperAdminPassword string
	SuperAdminName     string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Security         SecurityConfig
	Jobs             JobsConfig
	Seed             SeedConfig
	AllowCORSOrigins []string
}

// Load reads the optional config file and BACKOFFICE_* environment variables.
// A .env file in the working directory fills in variables that are not
// already set. An explicit configFile overrides the search paths.
func Load(configFile string) (*AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	// keys without defaults are invisible to Unmarshal unless bound
	for _, key := range []string{
		"postgres.dsn",
		"redis.password",
		"security.jwtsecret",
		"seed.superadminpassword",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Security.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if c.Security.JWTAccessTTL <= 0 || c.Security.JWTRefreshTTL <= 0 {
		return fmt.Errorf("security: token ttl must be positive")
	}
	if c.Security.JWTAccessTTL >= c.Security.JWTRefreshTTL {
		return fmt.Errorf("security: access ttl %s must be shorter than refresh ttl %s",
			c.Security.JWTAccessTTL, c.Security.JWTRefreshTTL)
	}
	if !strings.HasPrefix(c.Security.RefreshCookiePath, "/") {
		return fmt.Errorf("security: refresh cookie path %q must be absolute", c.Security.RefreshCookiePath)
	}
	if !cookiePathMatches(c.Security.RefreshCookiePath, RefreshRoutePath) {
		return fmt.Errorf("security: refresh cookie path %q does not cover %s",
			c.Security.RefreshCookiePath, RefreshRoutePath)
	}
	return nil
}

// cookiePathMatches applies the RFC 6265 path-match rule.
func cookiePathMatches(cookiePath, requestPath string) bool {
	if cookiePath == requestPath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 20)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.jwtaccessttl", "15m")
	v.SetDefault("security.jwtrefreshttl", "168h") // 7 days
	v.SetDefault("security.bcryptcost", 10)
	v.SetDefault("security.cookiesecure", false)
	v.SetDefault("security.refreshcookiepath", RefreshRoutePath)

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.sessionsweepschedule", "0 30 3 * * *")

	v.SetDefault("seed.superadminemail", "superadmin@example.com")
	v.SetDefault("seed.superadminname", "Super Admin")

	v.SetDefault("allowcorsorigins", []string{"http://localhost:5173"})
}
