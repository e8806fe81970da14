package main

import (
	"log"
	"time"

	"github.com/wheelforge/wheelforge-backend/config"
	"github.com/wheelforge/wheelforge-backend/internal/bootstrap"
	"github.com/wheelforge/wheelforge-backend/internal/builder"
	cronjob "github.com/wheelforge/wheelforge-backend/internal/builder/cron"
	"github.com/wheelforge/wheelforge-backend/internal/fetch"
	"github.com/wheelforge/wheelforge-backend/internal/registry"
	"github.com/wheelforge/wheelforge-backend/internal/storage/projectfs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	store, err := projectfs.New(cfg.Build.DataDir)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	client := fetch.NewHTTPClient(cfg.Index.FetchTimeout)
	resolver := registry.NewResolver(cfg.Index.BaseURL, client, registry.WithUserAgent(cfg.Index.UserAgent))
	fetcher := fetch.NewFetcher(client, fetch.WithUserAgent(cfg.Index.UserAgent))
	runner := builder.NewRunner(cfg.Build.PipBin, cfg.Build.PythonBin, cfg.Build.Timeout)

	janitor := cronjob.NewJanitor(cfg.Build.DataDir, cfg.Build.Timeout+5*time.Minute)
	janitor.Start()
	defer janitor.Stop()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "wheelforge",
		Version:     cfg.App.Version,
		Store:       store,
		Resolver:    resolver,
		Fetcher:     fetcher,
		Runner:      runner,
	})

	log.Printf("listening on :%s (data dir %s, index %s)", cfg.Server.Port, cfg.Build.DataDir, cfg.Index.BaseURL)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
