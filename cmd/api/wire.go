package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/punchamoorthee/estatedocs/internal/artifact"
	"github.com/punchamoorthee/estatedocs/internal/catalog"
	"github.com/punchamoorthee/estatedocs/internal/config"
	"github.com/punchamoorthee/estatedocs/internal/generator"
	"github.com/punchamoorthee/estatedocs/internal/render"
	"github.com/punchamoorthee/estatedocs/internal/service"
	"github.com/punchamoorthee/estatedocs/internal/store"
)

func openStore(ctx context.Context, cfg *config.Config) (artifact.Store, error) {
	if cfg.StorageBackend == "minio" {
		s, err := artifact.NewMinioStore(artifact.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			Region:    cfg.MinioRegion,
		})
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}
	return artifact.NewFileStore(cfg.DownloadDir)
}

// openRegistry returns the token registry and a func releasing its resources.
func openRegistry(ctx context.Context, cfg *config.Config, st artifact.Store) (artifact.Registry, func(), error) {
	if cfg.RegistryDSN != "" {
		pg, err := store.NewStore(cfg.RegistryDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
	reg, err := artifact.NewMarkerRegistry(cfg.DownloadDir, st)
	if err != nil {
		return nil, nil, err
	}
	return reg, func() {}, nil
}

func newGenerator(cfg *config.Config) (generator.Generator, error) {
	return generator.New(generator.Options{
		Backend: cfg.GeneratorBackend,
		OpenAI: generator.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.OpenAITimeout,
		},
	})
}

// buildService assembles the pipeline. The returned func closes the registry.
func buildService(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, log *slog.Logger) (*service.DocumentService, func(), error) {
	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("generator: %w", err)
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact store: %w", err)
	}
	reg, closeReg, err := openRegistry(ctx, cfg, st)
	if err != nil {
		return nil, nil, fmt.Errorf("token registry: %w", err)
	}

	svc := service.NewDocumentService(service.Deps{
		Catalog:   cat,
		Generator: gen,
		Renderer:  render.New(log),
		Namer:     artifact.NewNamer(reg),
		Store:     st,
		Logger:    log,
	})
	return svc, closeReg, nil
}
