package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"collectbot/core/bootstrap"
	"collectbot/core/cmd"
	"collectbot/internal/bot"
	"collectbot/internal/config"
)

func main() {
	// Local development convenience; the file is absent in production.
	_ = godotenv.Load()

	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg, ok := carrier.(*config.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			res, err := bootstrap.Run(bootstrap.Options{
				Config:   cfg.CoreConfig(),
				Database: cfg.Database,
			})
			if err != nil {
				return nil, err
			}
			return bot.New(cfg, res.DB), nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
