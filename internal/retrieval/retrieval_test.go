package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/models"
)

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}

type fakeStore struct {
	matches   []models.MatchedRecord
	err       error
	calls     int
	owner     string
	threshold float64
	limit     int
}

func (f *fakeStore) Search(_ context.Context, _ []float32, threshold float64, limit int, ownerID string) ([]models.MatchedRecord, error) {
	f.calls++
	f.owner = ownerID
	f.threshold = threshold
	f.limit = limit
	return f.matches, f.err
}

type fakeCompleter struct {
	response string
	err      error
	calls    int
	system   string
	user     string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.system = system
	f.user = user
	return f.response, f.err
}

func match(owner, rawJSON string, similarity float64) models.MatchedRecord {
	return models.MatchedRecord{
		PageRecord: models.PageRecord{OwnerID: owner, RawJSON: rawJSON},
		Similarity: similarity,
	}
}

func TestAnswer_MissingOwnerRefusesToSearch(t *testing.T) {
	em := &fakeEmbedder{}
	st := &fakeStore{}
	llm := &fakeCompleter{}
	engine := New(em, st, llm, 0.25, 5)

	for _, owner := range []string{"", "   "} {
		answer, err := engine.Answer(context.Background(), "how much did I spend?", owner)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoMatch, answer.Outcome)
		assert.Equal(t, NoMatchMessage, answer.Text)
	}

	// Hard privacy invariant: no backend is touched without an owner.
	assert.Equal(t, 0, em.calls)
	assert.Equal(t, 0, st.calls)
	assert.Equal(t, 0, llm.calls)
}

func TestAnswer_NoMatches(t *testing.T) {
	em := &fakeEmbedder{}
	st := &fakeStore{}
	llm := &fakeCompleter{}
	engine := New(em, st, llm, 0.25, 5)

	answer, err := engine.Answer(context.Background(), "how much did I spend at Acme Corp?", "user-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoMatch, answer.Outcome)
	assert.Equal(t, NoMatchMessage, answer.Text)
	assert.Equal(t, 0, answer.Matches)

	// The embedding call happens (it feeds the search); synthesis does not.
	assert.Equal(t, 1, em.calls)
	assert.Equal(t, 1, st.calls)
	assert.Equal(t, 0, llm.calls, "no LLM synthesis on the no-match path")
}

func TestAnswer_SearchParameters(t *testing.T) {
	st := &fakeStore{}
	engine := New(&fakeEmbedder{}, st, &fakeCompleter{response: "ok"}, 0.25, 5)

	_, err := engine.Answer(context.Background(), "q", "user-42")
	require.NoError(t, err)

	assert.Equal(t, "user-42", st.owner)
	assert.Equal(t, 0.25, st.threshold)
	assert.Equal(t, 5, st.limit)
}

func TestAnswer_SynthesizesFromMatches(t *testing.T) {
	st := &fakeStore{matches: []models.MatchedRecord{
		match("user-1", `{"transactions":[{"merchant":"Acme Corp","amount":"-40.25"}]}`, 0.91),
		match("user-1", `{"transactions":[{"merchant":"Acme Corp","amount":"-30.25"}]}`, 0.84),
		match("user-1", `{"transactions":[{"merchant":"Acme Corp","amount":"-50.00"}]}`, 0.61),
	}}
	llm := &fakeCompleter{response: "You spent 120.50 at Acme Corp. Proof: 01/05 Acme Corp -40.25."}
	engine := New(&fakeEmbedder{}, st, llm, 0.25, 5)

	answer, err := engine.Answer(context.Background(), "how much did I spend at Acme Corp?", "user-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnswered, answer.Outcome)
	assert.Equal(t, 3, answer.Matches)
	assert.Contains(t, answer.Text, "120.50")

	// Context is the stringified structured JSON of every match, delimited.
	assert.Contains(t, llm.user, `"-40.25"`)
	assert.Contains(t, llm.user, `"-50.00"`)
	assert.Contains(t, llm.user, "\n\n---\n\n")
	assert.Contains(t, llm.user, "how much did I spend at Acme Corp?")
	assert.Contains(t, llm.system, "financial analyst")
}

func TestAnswer_ErrorsPropagate(t *testing.T) {
	t.Run("embedding failure", func(t *testing.T) {
		embedErr := errors.New("401 unauthorized")
		engine := New(&fakeEmbedder{err: embedErr}, &fakeStore{}, &fakeCompleter{}, 0.25, 5)
		_, err := engine.Answer(context.Background(), "q", "user-1")
		assert.ErrorIs(t, err, embedErr)
	})

	t.Run("search failure", func(t *testing.T) {
		searchErr := errors.New("rpc failed")
		engine := New(&fakeEmbedder{}, &fakeStore{err: searchErr}, &fakeCompleter{}, 0.25, 5)
		_, err := engine.Answer(context.Background(), "q", "user-1")
		assert.ErrorIs(t, err, searchErr)
	})

	t.Run("synthesis failure", func(t *testing.T) {
		llmErr := errors.New("model unavailable")
		st := &fakeStore{matches: []models.MatchedRecord{match("user-1", `{}`, 0.9)}}
		engine := New(&fakeEmbedder{}, st, &fakeCompleter{err: llmErr}, 0.25, 5)
		_, err := engine.Answer(context.Background(), "q", "user-1")
		assert.ErrorIs(t, err, llmErr)
	})
}
