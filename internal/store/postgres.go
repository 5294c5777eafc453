package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/config"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/models"
)

// pageRecordRow maps a page record onto the page_records table. The
// extraction is kept as jsonb so the match function can return it whole.
type pageRecordRow struct {
	bun.BaseModel `bun:"table:page_records,alias:pr"`
	ID            int64           `bun:"id,pk,autoincrement"`
	RecordID      string          `bun:"record_id,notnull"`
	Content       string          `bun:"content,notnull"`
	Extraction    json.RawMessage `bun:"extraction,notnull,type:jsonb"`
	Embedding     []float32       `bun:"embedding,notnull,type:vector(1536)"`
	OwnerID       string          `bun:"owner_id,notnull"`
	ContentHash   string          `bun:"content_hash,notnull"`
	PageNumber    int             `bun:"page_number,notnull"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type matchRow struct {
	RecordID   string          `bun:"record_id"`
	Content    string          `bun:"content"`
	Extraction json.RawMessage `bun:"extraction"`
	OwnerID    string          `bun:"owner_id"`
	PageNumber int             `bun:"page_number"`
	Similarity float64         `bun:"similarity"`
}

// Postgres is the Supabase/pgvector backend. Similarity search goes through
// the match_page_records SQL function (see sql/match_page_records.sql) so
// the owner filter is applied server-side before ranking.
type Postgres struct {
	db *bun.DB
}

func NewPostgres(cfg *config.DatabaseConfig) (*Postgres, error) {
	sqldb, err := ConnectDB(cfg)
	if err != nil {
		return nil, &Error{Op: "connect", Err: err}
	}
	return &Postgres{db: NewDB(sqldb, cfg.Debug)}, nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN
	if !strings.Contains(dsn, "sslmode") {
		dsn += "?sslmode=disable"
	}
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Key))), nil
}

// Init creates the page_records table if missing. The pgvector extension and
// the match function are provisioned by sql/match_page_records.sql.
func (p *Postgres) Init(ctx context.Context) error {
	if _, err := p.db.NewCreateTable().Model((*pageRecordRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return &Error{Op: "init", Err: err}
	}
	return nil
}

func (p *Postgres) Insert(ctx context.Context, rec *models.PageRecord) (string, error) {
	if len(rec.Embedding) != VectorSize {
		return "", &Error{Op: "insert", Err: fmt.Errorf("embedding has %d dimensions, column is vector(%d)", len(rec.Embedding), VectorSize)}
	}
	extraction, err := json.Marshal(rec.Extraction)
	if err != nil {
		return "", &Error{Op: "insert", Err: err}
	}
	row := &pageRecordRow{
		RecordID:    rec.ID,
		Content:     rec.RawText,
		Extraction:  extraction,
		Embedding:   rec.Embedding,
		OwnerID:     rec.OwnerID,
		ContentHash: rec.ContentHash,
		PageNumber:  rec.PageNumber,
	}
	if _, err := p.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", &Error{Op: "insert", Err: err}
	}
	return rec.ID, nil
}

func (p *Postgres) Exists(ctx context.Context, ownerID, contentHash string) (bool, error) {
	exists, err := p.db.NewSelect().
		Model((*pageRecordRow)(nil)).
		Where("owner_id = ?", ownerID).
		Where("content_hash = ?", contentHash).
		Exists(ctx)
	if err != nil {
		return false, &Error{Op: "exists", Err: err}
	}
	return exists, nil
}

func (p *Postgres) Search(ctx context.Context, queryVec []float32, threshold float64, limit int, ownerID string) ([]models.MatchedRecord, error) {
	if len(queryVec) != VectorSize {
		return nil, &Error{Op: "search", Err: fmt.Errorf("query vector has %d dimensions, column is vector(%d)", len(queryVec), VectorSize)}
	}
	var rows []matchRow
	err := p.db.NewRaw(
		"SELECT * FROM match_page_records(?::vector, ?, ?, ?)",
		vectorLiteral(queryVec), threshold, limit, ownerID,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, &Error{Op: "search", Err: err}
	}

	matches := make([]models.MatchedRecord, 0, len(rows))
	for _, row := range rows {
		var extraction models.ExtractionResult
		if err := json.Unmarshal(row.Extraction, &extraction); err != nil {
			return nil, &Error{Op: "search", Err: err}
		}
		matches = append(matches, models.MatchedRecord{
			PageRecord: models.PageRecord{
				ID:         row.RecordID,
				RawText:    row.Content,
				Extraction: extraction,
				RawJSON:    string(row.Extraction),
				OwnerID:    row.OwnerID,
				PageNumber: row.PageNumber,
			},
			Similarity: row.Similarity,
		})
	}
	return matches, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// vectorLiteral renders a pgvector input literal, e.g. [0.1,0.2,0.3].
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
