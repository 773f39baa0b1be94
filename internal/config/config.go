package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	DBDSN   string `envconfig:"DB_DSN" default:"shoptill.db"`
	LogFile string `envconfig:"LOG_FILE" default:"./shoptill.log"`

	// TaxRate is the single source of the sales tax rate. Pricing reads it
	// from here and nowhere else.
	TaxRate decimal.Decimal `envconfig:"TAX_RATE" default:"0.10"`

	SeedDemoData bool `envconfig:"SEED_DEMO_DATA" default:"true"`
}

func Load() Config {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("[config] %v", err)
	}
	log.Printf("[config] PORT=%s DB_DSN=%s TAX_RATE=%s LOG_FILE=%s", cfg.Port, cfg.DBDSN, cfg.TaxRate, cfg.LogFile)
	return cfg
}
