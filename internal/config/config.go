package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio y del cliente de chat.
type Config struct {
	HTTPPort         string        `env:"HTTP_PORT" envDefault:"8080"`
	PredictorBaseURL string        `env:"PREDICTOR_BASE_URL" envDefault:"http://127.0.0.1:5000"`
	PredictorTimeout time.Duration `env:"PREDICTOR_TIMEOUT" envDefault:"30s"`
	PredictorMode    string        `env:"PREDICTOR_MODE" envDefault:"http"`
	RevealDelay      time.Duration `env:"REVEAL_DELAY" envDefault:"500ms"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
