package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/models"
)

func TestVectorLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want string
	}{
		{"empty", nil, "[]"},
		{"single", []float32{0.5}, "[0.5]"},
		{"several", []float32{1, -0.25, 0}, "[1,-0.25,0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vectorLiteral(tt.in))
		})
	}
}

// The dimension guard runs before any query is built, so a wrong-sized
// vector is rejected without touching the database.
func TestPostgres_DimensionGuard(t *testing.T) {
	p := &Postgres{}
	ctx := context.Background()

	t.Run("insert", func(t *testing.T) {
		rec := &models.PageRecord{Embedding: []float32{1, 0, 0}, OwnerID: "alice"}
		_, err := p.Insert(ctx, rec)

		var storeErr *Error
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "insert", storeErr.Op)
		assert.Contains(t, err.Error(), "vector(1536)")
	})

	t.Run("search", func(t *testing.T) {
		_, err := p.Search(ctx, []float32{1, 0, 0}, 0.25, 5, "alice")

		var storeErr *Error
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "search", storeErr.Op)
		assert.Contains(t, err.Error(), "3 dimensions")
	})
}
