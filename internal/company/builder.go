package company

import (
	"context"
	"io"
	"log/slog"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/services"
)

// BuildOptions carries the shared backends tenant variants are built on.
// Points and Embedder are optional; without them document search is disabled.
type BuildOptions struct {
	Points   PointQuerier
	Embedder Embedder
	Logger   *slog.Logger
}

// Build creates the registry for the given configurations. Unreachable SQL
// sources are skipped with a warning. The returned closers own the opened
// database handles.
func Build(ctx context.Context, configs []*models.CompanyConfig, opts BuildOptions) (*Registry, []io.Closer) {
	registry := NewRegistry()
	var closers []io.Closer

	for _, cfg := range configs {
		logger := opts.Logger.With("company", cfg.ShortName)

		var sources []*SQLSource
		for _, sc := range cfg.SQLSources {
			source, err := OpenSQLSource(ctx, sc.Name, sc.Driver, sc.DSNEnv, sc.Description, sc.Tables)
			if err != nil {
				logger.Warn("sql source unavailable", "source", sc.Name, "error", err)
				continue
			}
			sources = append(sources, source)
			closers = append(closers, source)
		}

		var docs *DocumentSearch
		if cfg.Documents != nil {
			if opts.Points != nil && opts.Embedder != nil {
				docs = NewDocumentSearch(opts.Points, opts.Embedder, cfg.Documents.Collection, cfg.Documents.Description, cfg.Documents.Limit)
			} else {
				logger.Warn("document search disabled: qdrant or embeddings not configured", "collection", cfg.Documents.Collection)
			}
		}

		base := NewConfiguredCompany(cfg, sources, docs, opts.Logger)

		var capability services.CompanyCapability = base
		if cfg.Variant == VariantSample {
			capability = NewSampleCompany(base)
		}
		registry.Register(cfg.ShortName, capability)

		logger.Info("company registered",
			"variant", cfg.Variant,
			"sql_sources", len(sources),
			"documents", docs != nil,
		)
	}

	return registry, closers
}
