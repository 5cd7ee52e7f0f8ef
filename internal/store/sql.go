package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/abhisek/mathsprint/internal/problemgen"
)

const answerColumns = `sequence, session_id, question_id, question_text, user_answer,
	correct_answer, is_correct, operation, grade, difficulty, time_spent, recorded_at`

// SQLStore is an AnswerRepo over database/sql. SQLite and MySQL are
// supported through Dialect.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	seq     *sequenceCounter
}

// OpenSQL connects to dsn using dialect d, configures the connection and
// creates the schema.
func OpenSQL(ctx context.Context, d Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := d.ConfigureConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure %s connection: %w", d.Name(), err)
	}

	for _, stmt := range d.Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	seq, err := newSequenceCounter(ctx, db, d)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLStore{db: db, dialect: d, seq: seq}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Append(ctx context.Context, rec AnswerRecord) (int64, error) {
	rec, err := prepare(rec)
	if err != nil {
		return 0, err
	}

	s.seq.mu.Lock()
	defer s.seq.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	seq, err := s.seq.next(ctx, tx)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO answer_records (`+answerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, rec.SessionID, rec.QuestionID, rec.QuestionText, rec.UserAnswer,
		rec.CorrectAnswer, rec.IsCorrect, string(rec.Operation), rec.Grade, rec.Difficulty,
		rec.TimeSpent, rec.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("save answer record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return seq, nil
}

func (s *SQLStore) History(ctx context.Context, sessionID string) ([]AnswerRecord, error) {
	return s.query(ctx,
		`SELECT `+answerColumns+` FROM answer_records WHERE session_id = ? ORDER BY sequence`,
		sessionID)
}

func (s *SQLStore) Sessions(ctx context.Context) ([]SessionHistory, error) {
	records, err := s.query(ctx, `SELECT `+answerColumns+` FROM answer_records ORDER BY sequence`)
	if err != nil {
		return nil, err
	}
	return groupBySession(records), nil
}

func (s *SQLStore) query(ctx context.Context, q string, args ...any) ([]AnswerRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query answer records: %w", err)
	}
	defer rows.Close()

	out := []AnswerRecord{}
	for rows.Next() {
		var (
			r         AnswerRecord
			op        string
			timestamp string
		)
		if err := rows.Scan(
			&r.Sequence, &r.SessionID, &r.QuestionID, &r.QuestionText, &r.UserAnswer,
			&r.CorrectAnswer, &r.IsCorrect, &op, &r.Grade, &r.Difficulty, &r.TimeSpent, &timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan answer record: %w", err)
		}
		r.Operation = problemgen.Operation(op)
		r.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", timestamp, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer records: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
