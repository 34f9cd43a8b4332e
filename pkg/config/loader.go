package config

import (
	"errors"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option configures a single Load call.
type Option func(*loadOptions)

type loadOptions struct {
	files       []string
	prefix      string
	environment map[string]string
}

// WithEnvFiles loads the given dotenv files before parsing.
// Unlike the implicit ".env", missing files here are reported as errors.
// Variables already present in the process environment win.
func WithEnvFiles(paths ...string) Option {
	return func(o *loadOptions) {
		o.files = append(o.files, paths...)
	}
}

// WithPrefix prepends prefix to every env tag of the target struct.
func WithPrefix(prefix string) Option {
	return func(o *loadOptions) {
		o.prefix = prefix
	}
}

// WithEnvironment parses from the given map instead of the process environment.
// Dotenv files are not consulted in that case.
func WithEnvironment(vars map[string]string) Option {
	return func(o *loadOptions) {
		o.environment = vars
	}
}

// Load parses environment variables into a fresh T using `env` and
// `envDefault` struct tags. A ".env" file in the working directory is
// loaded first when present.
//
// Example:
//
//	type ClientConfig struct {
//		BaseURL    string        `env:"NOTIFY_BASE_URL,required"`
//		MaxRetries int           `env:"NOTIFY_MAX_RETRIES" envDefault:"3"`
//		Interval   time.Duration `env:"NOTIFY_RETRY_INTERVAL" envDefault:"5s"`
//	}
//
//	cfg, err := config.Load[ClientConfig]()
func Load[T any](opts ...Option) (T, error) {
	var (
		zero T
		o    loadOptions
	)
	for _, opt := range opts {
		opt(&o)
	}

	if o.environment == nil {
		if err := loadDotenv(o.files); err != nil {
			return zero, err
		}
	}

	var v T
	envOpts := env.Options{Prefix: o.prefix}
	if o.environment != nil {
		envOpts.Environment = o.environment
	}
	if err := env.ParseWithOptions(&v, envOpts); err != nil {
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}

// MustLoad works like Load but panics on failure.
// Intended for configuration the process cannot start without.
func MustLoad[T any](opts ...Option) T {
	v, err := Load[T](opts...)
	if err != nil {
		panic(err)
	}
	return v
}

func loadDotenv(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			if err := godotenv.Load(); err != nil {
				return errors.Join(ErrEnvFile, err)
			}
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrEnvFile, err)
	}
	return nil
}
