// Command api-server runs the grocer HTTP API.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	grocer "github.com/greenbasket/grocer/internal/app"
)

func main() {
	app.Run(run)
}

func run(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
	cfg, err := grocer.LoadConfig()
	if err != nil {
		return err
	}
	return grocer.Run(ctx, lg, m, cfg)
}
