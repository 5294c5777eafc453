package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/models"

	"github.com/rs/zerolog/log"
)

// Completer is the chat-completion dependency; llmservice.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Failure means one page did not yield valid structured JSON. The caller
// must skip the page and continue; it is never fatal to an ingestion run.
type Failure struct {
	PageIndex int
	Reason    string
	Err       error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("extraction failed for page %d: %s", f.PageIndex+1, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// Extractor asks the language model for the structured form of a statement
// page and validates it against the fixed schema.
type Extractor struct {
	llm Completer
}

func New(llm Completer) *Extractor {
	return &Extractor{llm: llm}
}

// Extract converts raw page text into the structured schema. It returns the
// typed result together with the cleaned JSON string the model produced; the
// embedding is computed over that string, not over the raw text.
//
// Only syntactic validity and the presence of the top-level keys are
// checked. Field semantics (amount signs, date format) are trusted to the
// model; the prompt instructs the convention but nothing re-signs amounts.
func (e *Extractor) Extract(ctx context.Context, pageText string, pageIndex int) (*models.ExtractionResult, string, error) {
	log.Debug().Int("page", pageIndex+1).Msg("Extracting structured data from page")

	raw, err := e.llm.Complete(ctx, systemPrompt, fmt.Sprintf(promptTemplate, pageText))
	if err != nil {
		// A transport failure is not an extraction failure; it propagates.
		return nil, "", fmt.Errorf("extractor: page %d: %w", pageIndex+1, err)
	}

	clean := cleanModelJSON(raw)
	if clean == "" {
		return nil, "", &Failure{PageIndex: pageIndex, Reason: "empty response"}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &top); err != nil {
		return nil, "", &Failure{PageIndex: pageIndex, Reason: "malformed JSON", Err: err}
	}
	if _, ok := top["metadata"]; !ok {
		return nil, "", &Failure{PageIndex: pageIndex, Reason: "missing metadata key"}
	}
	if _, ok := top["transactions"]; !ok {
		return nil, "", &Failure{PageIndex: pageIndex, Reason: "missing transactions key"}
	}

	var result models.ExtractionResult
	if err := json.Unmarshal([]byte(clean), &result); err != nil {
		return nil, "", &Failure{PageIndex: pageIndex, Reason: "schema mismatch", Err: err}
	}
	return &result, clean, nil
}

// cleanModelJSON strips markdown fences and surrounding chatter the model
// sometimes adds despite the instructions, keeping only the JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
