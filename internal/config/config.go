package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"` // mysql or postgres
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT"`
	DBSSLMode              string `env:"DB_SSLMODE" envDefault:"disable"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`
	AutoMigrate            bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// When empty, REST identity comes from the X-User-Id header.
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`

	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"vercel.app"`

	WSSendRate  float64 `env:"WS_SEND_RATE" envDefault:"10"`
	WSSendBurst int     `env:"WS_SEND_BURST" envDefault:"20"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.DBPort == "" {
		if cfg.DBDriver == "postgres" {
			cfg.DBPort = "5432"
		} else {
			cfg.DBPort = "3306"
		}
	}
	return &cfg, nil
}
