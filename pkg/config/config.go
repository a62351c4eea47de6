package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Currency      CurrencyConfig
	Checkout      CheckoutConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Currency.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FERRETERIA_APP_ENV" required:"true"`
	Port         string `envconfig:"FERRETERIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FERRETERIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FERRETERIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FERRETERIA_DB_DSN"`
	Driver string `envconfig:"FERRETERIA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"FERRETERIA_DB_HOST"`
	Port     int    `envconfig:"FERRETERIA_DB_PORT" default:"5432"`
	User     string `envconfig:"FERRETERIA_DB_USER"`
	Password string `envconfig:"FERRETERIA_DB_PASSWORD"`
	Name     string `envconfig:"FERRETERIA_DB_NAME"`
	SSLMode  string `envconfig:"FERRETERIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FERRETERIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FERRETERIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FERRETERIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FERRETERIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FERRETERIA_REDIS_URL"`
	Address      string        `envconfig:"FERRETERIA_REDIS_ADDR"`
	Password     string        `envconfig:"FERRETERIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"FERRETERIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FERRETERIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FERRETERIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FERRETERIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FERRETERIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FERRETERIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FERRETERIA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FERRETERIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FERRETERIA_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"FERRETERIA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FERRETERIA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FERRETERIA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FERRETERIA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FERRETERIA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FERRETERIA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FERRETERIA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FERRETERIA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FERRETERIA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FERRETERIA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FERRETERIA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FERRETERIA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// CurrencyConfig replaces the legacy get-or-create configuration row. It is
// loaded once at boot and passed by reference to the pricing stack.
//
// Default table:
//
//	principal  USD
//	display    USD, VES, COP, EUR
//	precision  2
//	symbols    USD=$ VES=Bs COP=$ EUR=€
type CurrencyConfig struct {
	Principal string            `envconfig:"FERRETERIA_CURRENCY_PRINCIPAL" default:"USD"`
	Display   []string          `envconfig:"FERRETERIA_CURRENCY_DISPLAY" default:"USD,VES,COP,EUR"`
	Precision int               `envconfig:"FERRETERIA_CURRENCY_PRECISION" default:"2"`
	Symbols   map[string]string `envconfig:"FERRETERIA_CURRENCY_SYMBOLS" default:"USD:$,VES:Bs,COP:$,EUR:€"`
}

// Symbol returns the display symbol for a currency code, falling back to the
// code itself when no symbol is configured.
func (c CurrencyConfig) Symbol(code string) string {
	if sym, ok := c.Symbols[code]; ok && sym != "" {
		return sym
	}
	return code
}

// Displays reports whether the code is one of the configured display currencies.
func (c CurrencyConfig) Displays(code string) bool {
	for _, candidate := range c.Display {
		if candidate == code {
			return true
		}
	}
	return false
}

func (c *CurrencyConfig) validate() error {
	if c.Principal == "" {
		return fmt.Errorf("currency principal is required")
	}
	if len(c.Display) == 0 {
		c.Display = []string{c.Principal}
	}
	if !c.Displays(c.Principal) {
		return fmt.Errorf("principal currency %s must be in the display list", c.Principal)
	}
	if c.Precision < 0 || c.Precision > 8 {
		return fmt.Errorf("currency precision %d out of range", c.Precision)
	}
	return nil
}

type CheckoutConfig struct {
	OrderNumberPrefix string `envconfig:"FERRETERIA_ORDER_NUMBER_PREFIX" default:"PED"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FERRETERIA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
