package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/caarlos0/env/v9"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"sqlite"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"furnimarket.db"`

	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBHost                 string `env:"DB_HOST"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	// AuthDevHeader trusts X-User-Id instead of Firebase tokens. Only allowed
	// with the sqlite driver.
	AuthDevHeader bool `env:"AUTH_DEV_HEADER" envDefault:"false"`

	GeminiAPIKey       string `env:"GEMINI_API_KEY"`
	GeminiCaptionModel string `env:"GEMINI_CAPTION_MODEL" envDefault:"gemini-2.5-flash"`
	GCSCredentialsFile string `env:"GCS_CREDENTIALS_FILE"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	CORSAllowedSuffixes []string `env:"CORS_ALLOWED_SUFFIXES" envSeparator:"," envDefault:"vercel.app"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("config: SQLITE_PATH is required for driver %q", c.DBDriver)
		}
	case DriverMySQL:
		var missing []string
		for name, v := range map[string]string{
			"DB_USER":     c.DBUser,
			"DB_PASSWORD": c.DBPassword,
			"DB_NAME":     c.DBName,
		} {
			if v == "" {
				missing = append(missing, name)
			}
		}
		if c.DBHost == "" && c.InstanceConnectionName == "" {
			missing = append(missing, "DB_HOST")
		}
		if len(missing) > 0 {
			slices.Sort(missing)
			return fmt.Errorf("config: missing %s for driver %q", strings.Join(missing, ", "), c.DBDriver)
		}
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.AuthDevHeader && c.DBDriver != DriverSQLite {
		return fmt.Errorf("config: AUTH_DEV_HEADER is only allowed with DB_DRIVER=%s", DriverSQLite)
	}
	return nil
}
