package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/extractor"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/helper"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/models"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/parser"
)

// Extractor turns raw page text into the structured schema plus the JSON
// string it was decoded from.
type Extractor interface {
	Extract(ctx context.Context, pageText string, pageIndex int) (*models.ExtractionResult, string, error)
}

// Embedder computes the fixed-length vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the slice of the backend the pipeline needs.
type Store interface {
	Insert(ctx context.Context, rec *models.PageRecord) (string, error)
	Exists(ctx context.Context, ownerID, contentHash string) (bool, error)
}

// Options control failure policy. A store insert failure for one page skips
// that page and continues unless AbortOnStoreError is set.
type Options struct {
	AbortOnStoreError bool
}

// Pipeline ingests statement documents page by page: extract structured
// data, embed the structured JSON string, persist one record per page tagged
// with the owning user. Extraction failures skip the page; partial ingestion
// is a normal outcome reported through the summary.
type Pipeline struct {
	extractor Extractor
	embedder  Embedder
	store     Store
	opts      Options
}

func New(ex Extractor, em Embedder, st Store, opts Options) *Pipeline {
	return &Pipeline{extractor: ex, embedder: em, store: st, opts: opts}
}

// IngestFile ingests a PDF on disk for the given owner.
func (p *Pipeline) IngestFile(ctx context.Context, filePath, ownerID string) (*models.IngestSummary, error) {
	pages, err := parser.File(filePath)
	if err != nil {
		return nil, fmt.Errorf("ingest: parsing %s: %w", filePath, err)
	}
	return p.Ingest(ctx, pages, ownerID)
}

// IngestReader ingests a PDF byte-stream for the given owner.
func (p *Pipeline) IngestReader(ctx context.Context, r io.ReaderAt, size int64, ownerID string) (*models.IngestSummary, error) {
	pages, err := parser.Reader(r, size)
	if err != nil {
		return nil, fmt.Errorf("ingest: parsing document: %w", err)
	}
	return p.Ingest(ctx, pages, ownerID)
}

// Ingest runs the pipeline over already-extracted page texts. Pages run
// strictly in order; each successfully processed page is one independent
// insert, so a failure on one page never corrupts earlier ones.
func (p *Pipeline) Ingest(ctx context.Context, pages []parser.Page, ownerID string) (*models.IngestSummary, error) {
	if ownerID == "" {
		return nil, errors.New("ingest: owner id is required")
	}

	summary := &models.IngestSummary{}
	log.Info().Int("pages", len(pages)).Str("owner", ownerID).Msg("Ingesting document")

	for _, page := range pages {
		if page.Blank() {
			summary.Blank++
			continue
		}
		summary.Processed++

		result, rawJSON, err := p.extractor.Extract(ctx, page.Text, page.Number-1)
		if err != nil {
			var failure *extractor.Failure
			if errors.As(err, &failure) {
				log.Warn().Int("page", page.Number).Str("reason", failure.Reason).
					Msg("Page did not return valid JSON, skipping")
				summary.Skipped++
				summary.Failures = append(summary.Failures, models.PageFailure{
					Page: page.Number, Reason: failure.Reason,
				})
				continue
			}
			// Transport-level failure talking to the model; surface it.
			return summary, err
		}

		// The embedding is computed over the structured JSON, not the raw
		// text: queries are about transactions and metadata, not prose.
		vec, err := p.embedder.Embed(ctx, rawJSON)
		if err != nil {
			return summary, fmt.Errorf("ingest: embedding page %d: %w", page.Number, err)
		}

		hash := helper.ContentHash(ownerID, rawJSON)
		dup, err := p.store.Exists(ctx, ownerID, hash)
		if err != nil {
			if p.opts.AbortOnStoreError {
				return summary, err
			}
			log.Error().Err(err).Int("page", page.Number).Msg("Duplicate probe failed, storing anyway")
		}
		if dup {
			log.Info().Int("page", page.Number).Msg("Page already stored for this owner, skipping duplicate")
			summary.Duplicates++
			continue
		}

		id, err := helper.GenerateUUID()
		if err != nil {
			return summary, fmt.Errorf("ingest: %w", err)
		}
		rec := &models.PageRecord{
			ID:          id,
			RawText:     page.Text,
			Extraction:  *result,
			RawJSON:     rawJSON,
			Embedding:   vec,
			OwnerID:     ownerID,
			ContentHash: hash,
			PageNumber:  page.Number,
		}
		if _, err := p.store.Insert(ctx, rec); err != nil {
			if p.opts.AbortOnStoreError {
				return summary, err
			}
			log.Error().Err(err).Int("page", page.Number).Msg("Failed to store page, continuing")
			summary.Skipped++
			summary.Failures = append(summary.Failures, models.PageFailure{
				Page: page.Number, Reason: "store: " + err.Error(),
			})
			continue
		}

		summary.Stored++
		log.Debug().Int("page", page.Number).
			Int("transactions", len(result.Transactions)).
			Str("page_total", result.Total().String()).
			Msg("Stored page")
	}

	return summary, nil
}
