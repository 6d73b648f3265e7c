package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"log"
)

type Config struct {
	Queue  Queue
	Ingest Ingest
}

type Queue struct {
	MaxConcurrentTasks int           `env:"Queue_MaxConcurrentTasks" envDefault:"3"`
	PollInterval       time.Duration `env:"Queue_PollInterval" envDefault:"2s"`
	MaxAttempts        int           `env:"Queue_MaxAttempts" envDefault:"3"`
	ProcessTimeout     time.Duration `env:"Queue_ProcessTimeout" envDefault:"10m"`
	RetryBaseBackoff   time.Duration `env:"Queue_RetryBaseBackoff" envDefault:"500ms"`
	RetryMaxBackoff    time.Duration `env:"Queue_RetryMaxBackoff" envDefault:"30s"`
}

type Ingest struct {
	BaseURL string        `env:"Ingest_BaseURL" envDefault:"http://localhost:9100"`
	Timeout time.Duration `env:"Ingest_Timeout" envDefault:"5m"`
}

func Load() *Config {
	_ = godotenv.Load()

	var c Config
	if err := env.Parse(&c); err != nil {
		log.Fatal(err)
	}

	return &c
}
