package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/Rizki-Rahmadani/management-product/internal/usecase"
)

type MySQLOutboxRepo struct{ db *sql.DB }

func NewMySQLOutboxRepo(db *sql.DB) *MySQLOutboxRepo { return &MySQLOutboxRepo{db: db} }

// ClaimPending returns due PENDING rows. Single-dispatcher deployment;
// no SKIP LOCKED needed.
func (r *MySQLOutboxRepo) ClaimPending(ctx context.Context, limit int) ([]usecase.OutboxRow, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id,channel,payload,retry_count
FROM outbox
WHERE status='PENDING' AND next_attempt_at <= NOW()
ORDER BY id
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usecase.OutboxRow
	for rows.Next() {
		var row usecase.OutboxRow
		if err := rows.Scan(&row.ID, &row.Channel, &row.Payload, &row.RetryCount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *MySQLOutboxRepo) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox SET status='SENT', sent_at=NOW() WHERE id=?`, id)
	return err
}

func (r *MySQLOutboxRepo) MarkFailed(ctx context.Context, id int64, nextAttempt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox SET retry_count = retry_count + 1, next_attempt_at = ? WHERE id=?`, nextAttempt, id)
	return err
}

var _ usecase.OutboxRepo = (*MySQLOutboxRepo)(nil)
