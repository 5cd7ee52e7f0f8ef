package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/mathsprint/internal/problemgen"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS answer_records (
	sequence BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	question_id TEXT NOT NULL,
	question_text TEXT NOT NULL,
	user_answer INTEGER NOT NULL,
	correct_answer INTEGER NOT NULL,
	is_correct BOOLEAN NOT NULL,
	operation TEXT NOT NULL,
	grade INTEGER NOT NULL,
	difficulty INTEGER NOT NULL,
	time_spent DOUBLE PRECISION NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_answer_records_session ON answer_records (session_id, sequence);
`

// PoolConfig tunes the Postgres connection pool.
type PoolConfig struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// PostgresStore is an AnswerRepo backed by a pgx connection pool. The
// BIGSERIAL column supplies the global sequence.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and creates the schema.
func OpenPostgres(ctx context.Context, dsn string, cfg PoolConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Append(ctx context.Context, rec AnswerRecord) (int64, error) {
	rec, err := prepare(rec)
	if err != nil {
		return 0, err
	}

	var seq int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO answer_records (session_id, question_id, question_text, user_answer,
			correct_answer, is_correct, operation, grade, difficulty, time_spent, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING sequence`,
		rec.SessionID, rec.QuestionID, rec.QuestionText, rec.UserAnswer,
		rec.CorrectAnswer, rec.IsCorrect, string(rec.Operation), rec.Grade, rec.Difficulty,
		rec.TimeSpent, rec.Timestamp,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("save answer record: %w", err)
	}
	return seq, nil
}

func (s *PostgresStore) History(ctx context.Context, sessionID string) ([]AnswerRecord, error) {
	return s.query(ctx,
		`SELECT `+answerColumns+` FROM answer_records WHERE session_id = $1 ORDER BY sequence`,
		sessionID)
}

func (s *PostgresStore) Sessions(ctx context.Context) ([]SessionHistory, error) {
	records, err := s.query(ctx, `SELECT `+answerColumns+` FROM answer_records ORDER BY sequence`)
	if err != nil {
		return nil, err
	}
	return groupBySession(records), nil
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]AnswerRecord, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query answer records: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AnswerRecord, error) {
		var (
			r  AnswerRecord
			op string
		)
		err := row.Scan(
			&r.Sequence, &r.SessionID, &r.QuestionID, &r.QuestionText, &r.UserAnswer,
			&r.CorrectAnswer, &r.IsCorrect, &op, &r.Grade, &r.Difficulty, &r.TimeSpent, &r.Timestamp,
		)
		r.Operation = problemgen.Operation(op)
		r.Timestamp = r.Timestamp.UTC()
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan answer records: %w", err)
	}
	if records == nil {
		records = []AnswerRecord{}
	}
	return records, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
