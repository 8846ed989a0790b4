package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Credits  CreditsConfig  `yaml:"credits"`
	Provider ProviderConfig `yaml:"provider"`
	Notifier NotifierConfig `yaml:"notifier"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"4336"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"2m"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// DatabaseConfig holds PostgreSQL connection settings for the search store.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// CreditsConfig holds Redis connection settings for the credit ledger.
type CreditsConfig struct {
	Addr      string `yaml:"addr"       env:"CREDITS_REDIS_ADDR"      env-default:"localhost:6379"`
	Username  string `yaml:"username"   env:"CREDITS_REDIS_USERNAME"`
	Password  string `yaml:"password"   env:"CREDITS_REDIS_PASSWORD"`
	DB        int    `yaml:"db"         env:"CREDITS_REDIS_DB"        env-default:"0"`
	KeyPrefix string `yaml:"key_prefix" env:"CREDITS_KEY_PREFIX"      env-default:"credits:"`
}

// ProviderConfig holds settings for the external place-search provider.
type ProviderConfig struct {
	APIKey      string        `yaml:"api_key"      env:"PLACES_API_KEY"      env-required:"true"`
	BaseURL     string        `yaml:"base_url"     env:"PLACES_BASE_URL"     env-default:"https://places.googleapis.com/v1"`
	PageTimeout time.Duration `yaml:"page_timeout" env:"PLACES_PAGE_TIMEOUT" env-default:"15s"`
}

// NotifierConfig holds settings for the balance-update websocket channel.
// An empty URL disables the notifier (events are dropped with a warning).
type NotifierConfig struct {
	URL            string        `yaml:"url"             env:"NOTIFIER_WS_URL"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" env:"NOTIFIER_RECONNECT_DELAY" env-default:"2s"`
	MaxDelay       time.Duration `yaml:"max_delay"       env:"NOTIFIER_MAX_DELAY"       env-default:"10s"`
	DialTimeout    time.Duration `yaml:"dial_timeout"    env:"NOTIFIER_DIAL_TIMEOUT"    env-default:"5s"`
}

// AuthConfig holds token validation settings. Tokens are issued by the main
// backend; this service only validates them.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"http://localhost:3000"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}
