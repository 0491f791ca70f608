package main

import (
	"context"
	"log"

	corecmd "github.com/m3rciful/stockbot/core/cmd"
	"github.com/m3rciful/stockbot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.Bootstrap(ctx, cfg.(*app.Config))
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
