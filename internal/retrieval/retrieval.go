package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/models"
)

// NoMatchMessage is returned verbatim when no records match a query or when
// the caller supplied no owner identity. It is a normal outcome, not an
// error, and the message nudges the user to check their login.
const NoMatchMessage = "Try again, try to enter the correct username :("

// contextSeparator joins the structured JSON of matched pages into one
// bounded context block (bounded by the result cap, not by tokens).
const contextSeparator = "\n\n---\n\n"

const systemInstruction = `You are a financial analyst assistant.
1. Use the provided Context (which contains JSON bank statement data) to answer the User Query.
2. If the context contains multiple transactions for a merchant, sum them up accurately.
3. Be concise and professional.
4. Also list the proofs from the data so customer can manually verify too.
5. Verify everything twice to make sure results aren't random.`

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Store interface {
	Search(ctx context.Context, queryVec []float32, threshold float64, limit int, ownerID string) ([]models.MatchedRecord, error)
}

type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Outcome distinguishes a synthesized answer from the no-match fallback so
// the chat layer can render them differently. Errors come back as errors.
type Outcome int

const (
	OutcomeAnswered Outcome = iota
	OutcomeNoMatch
)

type Answer struct {
	Text    string
	Outcome Outcome
	Matches int
}

// Engine answers natural-language questions over a user's stored statement
// pages: embed the query, similarity-search scoped to the owner, then
// synthesize a grounded answer from the matched structured data.
type Engine struct {
	embedder  Embedder
	store     Store
	llm       Completer
	threshold float64
	limit     int
}

func New(embedder Embedder, store Store, llm Completer, threshold float64, limit int) *Engine {
	return &Engine{embedder: embedder, store: store, llm: llm, threshold: threshold, limit: limit}
}

// Answer runs one query for one owner. A missing owner id refuses to search
// at all rather than querying globally; that guard is a privacy invariant,
// not a convenience default, so it short-circuits before any backend call.
func (e *Engine) Answer(ctx context.Context, query, ownerID string) (*Answer, error) {
	if strings.TrimSpace(ownerID) == "" {
		log.Warn().Msg("Query without owner identity, refusing to search")
		return &Answer{Text: NoMatchMessage, Outcome: OutcomeNoMatch}, nil
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embedding query: %w", err)
	}

	matches, err := e.store.Search(ctx, queryVec, e.threshold, e.limit, ownerID)
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}
	log.Debug().Int("matches", len(matches)).Str("owner", ownerID).Msg("Similarity search done")

	if len(matches) == 0 {
		return &Answer{Text: NoMatchMessage, Outcome: OutcomeNoMatch}, nil
	}

	var contextBlock strings.Builder
	for i, m := range matches {
		if i > 0 {
			contextBlock.WriteString(contextSeparator)
		}
		contextBlock.WriteString(m.RawJSON)
	}

	user := fmt.Sprintf("context: %s\n\nuser query: %s", contextBlock.String(), query)
	text, err := e.llm.Complete(ctx, systemInstruction, user)
	if err != nil {
		return nil, fmt.Errorf("retrieval: synthesizing answer: %w", err)
	}

	return &Answer{Text: text, Outcome: OutcomeAnswered, Matches: len(matches)}, nil
}
