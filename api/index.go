package handler

import (
	"context"
	"net/http"

	"github.com/wadjakorntonsri/linkhub/pkg/app"
	"github.com/wadjakorntonsri/linkhub/pkg/config"
	"github.com/wadjakorntonsri/linkhub/pkg/observability"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		panic(err)
	}

	// On Vercel, DATABASE_URL must point at Postgres or a remote libsql
	// database; a local sqlite file does not survive between invocations.
	container, err := app.NewContainer(context.Background(), cfg, logger)
	if err != nil {
		panic(err)
	}
	mux = container.Handler()
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
