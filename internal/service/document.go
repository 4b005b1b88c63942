// Package service runs the generation pipeline: prompt, generation, token
// reservation, rendering and the paired write of preview and final PDFs.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/estatedocs/internal/artifact"
	"github.com/punchamoorthee/estatedocs/internal/catalog"
	"github.com/punchamoorthee/estatedocs/internal/domain"
	"github.com/punchamoorthee/estatedocs/internal/generator"
	"github.com/punchamoorthee/estatedocs/internal/logger"
	"github.com/punchamoorthee/estatedocs/internal/prompt"
	"github.com/punchamoorthee/estatedocs/internal/render"
)

// DownloadPath prefixes every artifact URL handed to clients.
const DownloadPath = "/download/"

var (
	generationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "estatedocs_generation_duration_seconds",
		Help:    "Time spent waiting on the generation backend",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
	}, []string{"outcome"})

	artifactsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estatedocs_artifacts_written_total",
		Help: "PDF artifacts stored, by kind",
	}, []string{"kind"})
)

type DocumentService struct {
	catalog   *catalog.Catalog
	generator generator.Generator
	renderer  *render.Renderer
	namer     *artifact.Namer
	store     artifact.Store
	log       *slog.Logger
	now       func() time.Time
}

// Deps are the collaborators of a DocumentService. Catalog and Logger may be nil.
type Deps struct {
	Catalog   *catalog.Catalog
	Generator generator.Generator
	Renderer  *render.Renderer
	Namer     *artifact.Namer
	Store     artifact.Store
	Logger    *slog.Logger
}

func NewDocumentService(d Deps) *DocumentService {
	if d.Catalog == nil {
		d.Catalog = catalog.Default()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &DocumentService{
		catalog:   d.Catalog,
		generator: d.Generator,
		renderer:  d.Renderer,
		namer:     d.Namer,
		store:     d.Store,
		log:       d.Logger.With("comp", "pipeline"),
		now:       time.Now,
	}
}

// Generate produces and stores the preview and final PDFs for req.
// Either both artifacts are stored or neither is.
func (s *DocumentService) Generate(ctx context.Context, req domain.DocumentRequest) (domain.GenerationResult, error) {
	log := logger.FromContext(ctx, s.log).With("document_type", req.DocumentType)

	start := time.Now()
	text, err := s.generator.Generate(ctx, prompt.Build(req))
	if err != nil {
		generationLatency.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return domain.GenerationResult{}, err
	}
	generationLatency.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	log.Debug("generation complete", "chars", len(text), "elapsed", time.Since(start))

	pair, err := s.namer.Next(ctx, req.DocumentType)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	preview, final, err := s.renderer.Pair(text, s.catalog.Title(req.DocumentType), req.ClientName, s.now())
	if err != nil {
		s.release(ctx, log, pair)
		return domain.GenerationResult{}, err
	}

	if err := s.writePair(ctx, log, pair, preview, final); err != nil {
		return domain.GenerationResult{}, err
	}

	log.Info("document generated", "token", pair.Token, "preview", pair.Preview, "final", pair.Final)
	return domain.GenerationResult{
		Success:       true,
		PreviewURL:    DownloadPath + pair.Preview,
		FinalFilename: pair.Final,
	}, nil
}

// writePair stores preview then final. A failed final write removes the
// preview and frees the token so no half pair is ever visible. Write errors
// match both domain.ErrRender and the store's own error.
func (s *DocumentService) writePair(ctx context.Context, log *slog.Logger, pair domain.ArtifactPair, preview, final []byte) error {
	if err := s.store.Put(ctx, pair.Preview, preview); err != nil {
		s.release(ctx, log, pair)
		return fmt.Errorf("%w: store preview: %w", domain.ErrRender, err)
	}
	artifactsWritten.WithLabelValues("preview").Inc()

	if err := s.store.Put(ctx, pair.Final, final); err != nil {
		// cleanup must run even when ctx is what failed the write
		cleanup := context.WithoutCancel(ctx)
		if rmErr := s.store.Remove(cleanup, pair.Preview); rmErr != nil {
			log.Error("orphaned preview", "name", pair.Preview, "error", rmErr)
		}
		s.release(cleanup, log, pair)
		return fmt.Errorf("%w: store final: %w", domain.ErrRender, err)
	}
	artifactsWritten.WithLabelValues("final").Inc()
	return nil
}

func (s *DocumentService) release(ctx context.Context, log *slog.Logger, pair domain.ArtifactPair) {
	if err := s.namer.Release(context.WithoutCancel(ctx), pair); err != nil {
		log.Warn("token release failed", "token", pair.Token, "error", err)
	}
}

// Open returns a stored artifact for download.
func (s *DocumentService) Open(ctx context.Context, name string) (*artifact.Object, error) {
	return s.store.Open(ctx, name)
}

// Catalog exposes the document type enumeration.
func (s *DocumentService) Catalog() *catalog.Catalog {
	return s.catalog
}
