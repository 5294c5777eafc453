package store

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/models"
)

// Chromem is the local persistent backend, useful for running the pipeline
// without a Supabase project. Owner scoping happens through the metadata
// filter of the query, and the content hash doubles as the document ID so
// re-ingesting the same page is naturally idempotent. The record id travels
// in metadata so it survives the round trip through search.
type Chromem struct {
	db         *chromem.DB
	collection *chromem.Collection
}

func NewChromem(dbPath, collectionName string) (*Chromem, error) {
	db, err := chromem.NewPersistentDB(dbPath, false)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, &Error{Op: "open", Err: fmt.Errorf("failed to create/get collection: %v", err)}
	}
	return &Chromem{db: db, collection: collection}, nil
}

func (c *Chromem) Insert(ctx context.Context, rec *models.PageRecord) (string, error) {
	doc := chromem.Document{
		ID:      rec.ContentHash,
		Content: rec.RawJSON,
		Metadata: map[string]string{
			"record_id":   rec.ID,
			"owner_id":    rec.OwnerID,
			"page_number": strconv.Itoa(rec.PageNumber),
			"raw_text":    rec.RawText,
		},
		Embedding: rec.Embedding,
	}
	if err := c.collection.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return "", &Error{Op: "insert", Err: err}
	}
	return rec.ID, nil
}

func (c *Chromem) Exists(ctx context.Context, ownerID, contentHash string) (bool, error) {
	doc, err := c.collection.GetByID(ctx, contentHash)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, &Error{Op: "exists", Err: err}
	}
	return doc.Metadata["owner_id"] == ownerID, nil
}

// isNotFound separates a missing document from a genuine backend failure.
// chromem exposes no sentinel for the miss, only the message.
func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "not found")
}

func (c *Chromem) Search(ctx context.Context, queryVec []float32, threshold float64, limit int, ownerID string) ([]models.MatchedRecord, error) {
	n := limit
	if count := c.collection.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := c.collection.QueryEmbedding(ctx, queryVec, n, map[string]string{"owner_id": ownerID}, nil)
	if err != nil {
		return nil, &Error{Op: "search", Err: err}
	}

	var matches []models.MatchedRecord
	for _, res := range results {
		// Strictly above the threshold, same as match_page_records.sql.
		if float64(res.Similarity) <= threshold {
			continue
		}
		var extraction models.ExtractionResult
		if err := json.Unmarshal([]byte(res.Content), &extraction); err != nil {
			return nil, &Error{Op: "search", Err: err}
		}
		pageNumber, _ := strconv.Atoi(res.Metadata["page_number"])
		id := res.Metadata["record_id"]
		if id == "" {
			id = res.ID
		}
		matches = append(matches, models.MatchedRecord{
			PageRecord: models.PageRecord{
				ID:          id,
				RawText:     res.Metadata["raw_text"],
				Extraction:  extraction,
				RawJSON:     res.Content,
				OwnerID:     res.Metadata["owner_id"],
				ContentHash: res.ID,
				PageNumber:  pageNumber,
			},
			Similarity: float64(res.Similarity),
		})
	}
	return matches, nil
}

func (c *Chromem) Close() error { return nil }
