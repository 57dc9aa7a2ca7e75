package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	mu sync.RWMutex
	v  = newViper()
)

func newViper() *viper.Viper {
	nv := viper.New()
	nv.AutomaticEnv()
	return nv
}

// Load reads an optional .env file (outside production) and an optional
// config.yaml from the working directory or ./config. Environment variables
// always win over file values.
func Load(dotenvFiles ...string) error {
	if os.Getenv("GO_ENV") != "production" {
		if len(dotenvFiles) == 0 {
			dotenvFiles = []string{".env"}
		}
		for _, f := range dotenvFiles {
			if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load %s: %w", f, err)
			}
		}
	}

	nv := newViper()
	nv.SetConfigName("config")
	nv.SetConfigType("yaml")
	nv.AddConfigPath(".")
	nv.AddConfigPath("./config")
	if err := nv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	mu.Lock()
	v = nv
	mu.Unlock()
	return nil
}

func lookup(key string) string {
	mu.RLock()
	defer mu.RUnlock()
	return strings.TrimSpace(v.GetString(key))
}

func String(key, fallback string) string {
	val := lookup(key)
	if val == "" {
		return fallback
	}
	return val
}

func RequiredString(key string) (string, error) {
	val := lookup(key)
	if val == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return val, nil
}

func Int(key string, fallback int) (int, error) {
	val := lookup(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got %q)", key, val)
	}
	return n, nil
}

func Bool(key string, fallback bool) bool {
	val := lookup(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

// List splits a comma-separated value, dropping empty entries.
func List(key string, fallback []string) []string {
	val := lookup(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func Port(key, fallback string) (string, error) {
	val := String(key, fallback)
	p, err := strconv.Atoi(val)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("%s must be a valid TCP port (got %q)", key, val)
	}
	return val, nil
}
