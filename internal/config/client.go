package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Бэкенды хранилища учётных данных клиента.
const (
	CredStoreFile  = "file"
	CredStoreRedis = "redis"
)

// ClientConfig настройки CLI‑клиента справочника.
type ClientConfig struct {
	Env       string        `yaml:"env" env:"ENV" env-default:"local"`
	BaseURL   string        `yaml:"base_url" env:"DIRECTORY_BASE_URL" env-default:"http://localhost:4000"`
	Timeout   time.Duration `yaml:"timeout" env:"DIRECTORY_TIMEOUT" env-default:"10s"`
	CredStore CredStore     `yaml:"credstore"`
}

// CredStore выбирает и настраивает хранилище токена и профиля.
type CredStore struct {
	Backend         string `yaml:"backend" env:"CREDSTORE_BACKEND" env-default:"file"`
	Path            string `yaml:"path" env:"CREDSTORE_PATH" env-default:"./directory-session.json"`
	Secret          string `yaml:"secret" env:"CREDSTORE_SECRET"`
	Namespace       string `yaml:"namespace" env:"CREDSTORE_NAMESPACE" env-default:"default"`
	RedisConnection `yaml:"redis_connection"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// LoadClient читает конфиг клиента. Пустой path означает «только переменные окружения».
func LoadClient(path string) (*ClientConfig, error) {
	const op = "config.LoadClient"
	var cfg ClientConfig
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.CredStore.Backend != CredStoreFile && cfg.CredStore.Backend != CredStoreRedis {
		return nil, fmt.Errorf("%s: unknown credstore backend %q", op, cfg.CredStore.Backend)
	}
	if cfg.CredStore.Backend == CredStoreFile && cfg.CredStore.Secret == "" {
		return nil, fmt.Errorf("%s: credstore secret is required for the file backend", op)
	}
	return &cfg, nil
}

// MustLoadClient загружает конфиг клиента (CONFIG_PATH необязателен).
func MustLoadClient() *ClientConfig {
	cfg, err := LoadClient(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read config: %s\n", err)
		os.Exit(1)
	}
	return cfg
}
