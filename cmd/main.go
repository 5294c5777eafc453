package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/auth"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/config"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/embedding"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/extractor"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/helper"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/ingest"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/llmservice"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/retrieval"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/store"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	filePath := flag.String("file", "", "Path to the bank statement PDF to ingest")
	query := flag.String("query", "", "Question to answer from stored statements")
	owner := flag.String("owner", "", "Owner id scoping ingestion and queries")
	email := flag.String("email", "", "Email to sign in with (alternative to -owner)")
	password := flag.String("password", "", "Password for -email")
	initDB := flag.Bool("init-db", false, "Create the page_records table and exit")
	flag.Parse()

	if *filePath != "" && *query != "" {
		log.Fatal().Msg("Please provide either a statement file using the -file flag or a question using the -query flag, but not both")
	}

	ctx := context.Background()

	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	if *initDB {
		initDatabase(ctx, cfg)
		return
	}

	if *filePath == "" && *query == "" {
		log.Fatal().Msg("Please provide either a statement file using the -file flag or a question using the -query flag")
	}

	ownerID := resolveOwner(ctx, cfg, *owner, *email, *password)

	if *filePath != "" {
		ingestStatement(ctx, cfg, *filePath, ownerID)
		return
	}
	answerQuery(ctx, cfg, *query, ownerID)
}

// resolveOwner prefers an explicit -owner flag; otherwise signs in with the
// given credentials and uses the authenticated user id.
func resolveOwner(ctx context.Context, cfg *config.Config, owner, email, password string) string {
	if owner != "" {
		return owner
	}
	if email == "" || password == "" {
		log.Fatal().Msg("Please provide -owner, or -email and -password to sign in")
	}
	session, err := auth.NewClient(&cfg.Auth).SignIn(ctx, email, password)
	if err != nil {
		log.Fatal().Err(err).Msg("Error signing in")
	}
	log.Info().Str("email", session.Email).Msg("Signed in")
	return session.UserID
}

func initDatabase(ctx context.Context, cfg *config.Config) {
	pg, err := store.NewPostgres(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	defer pg.Close()

	if err := pg.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
	}
	log.Info().Msg("Database initialized; apply sql/match_page_records.sql for the search function")
}

func ingestStatement(ctx context.Context, cfg *config.Config, filePath, ownerID string) {
	st, err := store.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening store")
	}
	defer st.Close()

	embedder, err := embedding.New(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	pipeline := ingest.New(
		extractor.New(llmservice.NewClient(&cfg.Inference)),
		embedder,
		st,
		ingest.Options{AbortOnStoreError: cfg.Ingest.AbortOnStoreError},
	)

	summary, err := pipeline.IngestFile(ctx, filePath, ownerID)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting statement")
	}

	log.Info().Msg("Ingest summary: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	helper.PrettyPrint(summary)
}

func answerQuery(ctx context.Context, cfg *config.Config, query, ownerID string) {
	st, err := store.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening store")
	}
	defer st.Close()

	embedder, err := embedding.New(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	engine := retrieval.New(
		embedder,
		st,
		llmservice.NewClient(&cfg.Inference),
		cfg.Retrieval.MatchThreshold,
		cfg.Retrieval.MatchCount,
	)

	answer, err := engine.Answer(ctx, query, ownerID)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering query")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	if answer.Outcome == retrieval.OutcomeNoMatch {
		log.Info().Msg("No matches: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		fmt.Printf("%s\n\n", answer.Text)
		return
	}

	log.Info().Int("matches", answer.Matches).Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer.Text)
}
