package store

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/prodbot/internal/domain"
)

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteCheckpointer implements Checkpointer on top of DB.
type SQLiteCheckpointer struct {
	db *DB
}

// NewSQLiteCheckpointer creates a checkpointer using the given database.
// Closing the checkpointer closes db.
func NewSQLiteCheckpointer(db *DB) *SQLiteCheckpointer {
	return &SQLiteCheckpointer{db: db}
}

func (s *SQLiteCheckpointer) Load(ctx context.Context, threadID string) ([]domain.Message, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT role, content, node, created_at
		 FROM thread_messages WHERE thread_id = ? ORDER BY seq`, threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading thread %s: %w", threadID, err)
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var role, ts string
		if err := rows.Scan(&role, &msg.Content, &msg.Node, &ts); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.Role = domain.Role(role)
		msg.Timestamp, _ = time.Parse(timeFormat, ts)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (s *SQLiteCheckpointer) Append(ctx context.Context, threadID string, msgs ...domain.Message) error {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timeFormat)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO threads (id, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		threadID, now, now,
	); err != nil {
		return fmt.Errorf("upserting thread %s: %w", threadID, err)
	}

	for _, msg := range msgs {
		ts := msg.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO thread_messages (thread_id, role, content, node, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			threadID, string(msg.Role), msg.Content, msg.Node, ts.UTC().Format(timeFormat),
		); err != nil {
			return fmt.Errorf("appending to thread %s: %w", threadID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (s *SQLiteCheckpointer) Threads(ctx context.Context) ([]domain.ThreadInfo, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT t.id, t.updated_at, COUNT(m.seq)
		 FROM threads t LEFT JOIN thread_messages m ON m.thread_id = t.id
		 GROUP BY t.id ORDER BY t.updated_at DESC, t.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	defer rows.Close()

	infos := []domain.ThreadInfo{}
	for rows.Next() {
		var info domain.ThreadInfo
		var ts string
		if err := rows.Scan(&info.ID, &ts, &info.Messages); err != nil {
			return nil, fmt.Errorf("scanning thread: %w", err)
		}
		info.UpdatedAt, _ = time.Parse(timeFormat, ts)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *SQLiteCheckpointer) Close() error {
	return s.db.Close()
}
