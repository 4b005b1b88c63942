package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/punchamoorthee/estatedocs/internal/domain"
)

const tokensTable = "artifact_tokens"

const schema = `
CREATE TABLE IF NOT EXISTS artifact_tokens (
    token         TEXT PRIMARY KEY,
    document_type TEXT NOT NULL,
    preview_name  TEXT NOT NULL,
    final_name    TEXT NOT NULL,
    reserved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Store is a Postgres-backed token registry. The primary key on token is the
// only synchronization between workers.
type Store struct {
	Db  *pgxpool.Pool
	sql squirrel.StatementBuilderType
	now func() time.Time
}

func NewStore(connString string) (*Store, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Store{Db: pool, sql: newBuilder(), now: time.Now}, nil
}

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (s *Store) Close() {
	s.Db.Close()
}

// Migrate creates the registry table.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.Db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate registry: %w", err)
	}
	return nil
}

func buildReserve(b squirrel.StatementBuilderType, pair domain.ArtifactPair, at time.Time) (string, []interface{}, error) {
	return b.Insert(tokensTable).
		Columns("token", "document_type", "preview_name", "final_name", "reserved_at").
		Values(pair.Token, pair.DocumentType, pair.Preview, pair.Final, at.UTC()).
		ToSql()
}

func buildRelease(b squirrel.StatementBuilderType, token string) (string, []interface{}, error) {
	return b.Delete(tokensTable).Where(squirrel.Eq{"token": token}).ToSql()
}

// Reserve inserts the token. A unique violation means another generation
// already holds it.
func (s *Store) Reserve(ctx context.Context, pair domain.ArtifactPair) error {
	query, args, err := buildReserve(s.sql, pair, s.now())
	if err != nil {
		return fmt.Errorf("build reserve: %w", err)
	}
	if _, err := s.Db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTokenTaken
		}
		return fmt.Errorf("%w: reserve token: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *Store) Release(ctx context.Context, pair domain.ArtifactPair) error {
	query, args, err := buildRelease(s.sql, pair.Token)
	if err != nil {
		return fmt.Errorf("build release: %w", err)
	}
	if _, err := s.Db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: release token: %v", domain.ErrStorage, err)
	}
	return nil
}

const backfillChunk = 1000

func buildExisting(b squirrel.StatementBuilderType, tokens []string) (string, []interface{}, error) {
	return b.Select("token").From(tokensTable).Where(squirrel.Eq{"token": tokens}).ToSql()
}

// Backfill records tokens of artifacts that were stored before the registry
// existed. Tokens already present are left alone. It returns the number of
// rows copied.
func (s *Store) Backfill(ctx context.Context, pairs []domain.ArtifactPair) (int64, error) {
	byToken := make(map[string]domain.ArtifactPair, len(pairs))
	for _, p := range pairs {
		byToken[p.Token] = p
	}
	tokens := make([]string, 0, len(byToken))
	for t := range byToken {
		tokens = append(tokens, t)
	}

	for start := 0; start < len(tokens); start += backfillChunk {
		end := min(start+backfillChunk, len(tokens))
		query, args, err := buildExisting(s.sql, tokens[start:end])
		if err != nil {
			return 0, fmt.Errorf("build lookup: %w", err)
		}
		rows, err := s.Db.Query(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("lookup tokens: %w", err)
		}
		existing, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return 0, fmt.Errorf("scan tokens: %w", err)
		}
		for _, t := range existing {
			delete(byToken, t)
		}
	}
	if len(byToken) == 0 {
		return 0, nil
	}

	at := s.now().UTC()
	rows := make([][]interface{}, 0, len(byToken))
	for _, p := range byToken {
		rows = append(rows, []interface{}{p.Token, p.DocumentType, p.Preview, p.Final, at})
	}
	n, err := s.Db.CopyFrom(ctx,
		pgx.Identifier{tokensTable},
		[]string{"token", "document_type", "preview_name", "final_name", "reserved_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy tokens: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
