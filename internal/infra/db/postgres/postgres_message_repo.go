package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"notification-hub/internal/domain"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/repository"
)

var _ repository.MessageRepository = (*PostgresMessageRepo)(nil)

// PostgresMessageRepo persists messages and their deliveries. Deliveries
// carry an explicit seq ordinal so reads restore the exact destination order
// of the original request.
type PostgresMessageRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageRepo(pool *pgxpool.Pool) *PostgresMessageRepo {
	return &PostgresMessageRepo{pool: pool}
}

func (r *PostgresMessageRepo) Save(ctx context.Context, tx repository.Tx, m *model.Message) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const insMsg = `
INSERT INTO messages (id, user_id, content, created_at)
VALUES ($1,$2,$3,$4);`
	if _, err := ex.Exec(ctx, insMsg, m.ID, m.UserID, m.Content, m.CreatedAt); err != nil {
		return fmt.Errorf("save message: %w", err)
	}

	const insDel = `
INSERT INTO message_deliveries
  (id, message_id, seq, platform, destination, status, provider_response, error_message, sent_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`
	for i, d := range m.Deliveries {
		var sentAt interface{}
		if !d.SentAt.IsZero() {
			sentAt = d.SentAt
		}
		if _, err := ex.Exec(ctx, insDel,
			d.ID, m.ID, i, d.Platform, d.Destination, d.Status,
			d.ProviderResponse, nullable(d.ErrorMessage), sentAt, d.CreatedAt,
		); err != nil {
			return fmt.Errorf("save delivery %d: %w", i, err)
		}
	}
	return nil
}

func (r *PostgresMessageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Message, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `SELECT id, user_id, content, created_at FROM messages WHERE id=$1;`
	var m model.Message
	if err := ex.QueryRow(ctx, q, id).Scan(&m.ID, &m.UserID, &m.Content, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.attachDeliveries(ctx, ex, []*model.Message{&m}); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresMessageRepo) FindByOwner(ctx context.Context, tx repository.Tx, userID string, f repository.MessageFilter) ([]*model.Message, error) {
	return r.find(ctx, tx, userID, f)
}

func (r *PostgresMessageRepo) FindAll(ctx context.Context, tx repository.Tx, f repository.MessageFilter) ([]*model.Message, error) {
	return r.find(ctx, tx, "", f)
}

func (r *PostgresMessageRepo) CountByOwner(ctx context.Context, tx repository.Tx, userID string) (int64, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE user_id=$1;`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// find builds the filtered listing. userID == "" means the unrestricted
// admin view. Status/platform filters match messages having at least one
// delivery with those attributes, mirroring the owner-facing query semantics.
func (r *PostgresMessageRepo) find(ctx context.Context, tx repository.Tx, userID string, f repository.MessageFilter) ([]*model.Message, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if userID != "" {
		where = append(where, "m.user_id = "+arg(userID))
	}
	if !f.From.IsZero() {
		where = append(where, "m.created_at >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "m.created_at <= "+arg(f.To))
	}
	if f.Status != "" || f.Platform != "" {
		sub := "EXISTS (SELECT 1 FROM message_deliveries d WHERE d.message_id = m.id"
		if f.Status != "" {
			sub += " AND d.status = " + arg(string(f.Status))
		}
		if f.Platform != "" {
			sub += " AND d.platform = " + arg(string(f.Platform))
		}
		where = append(where, sub+")")
	}

	q := "SELECT m.id, m.user_id, m.content, m.created_at FROM messages m"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY m.created_at DESC"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		q += " OFFSET " + arg(f.Offset)
	}
	q += ";"

	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer rows.Close()

	var out []*model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachDeliveries(ctx, ex, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresMessageRepo) attachDeliveries(ctx context.Context, ex executor, msgs []*model.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	byID := make(map[string]*model.Message, len(msgs))
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	const q = `
SELECT id, message_id, platform, destination, status, provider_response, error_message, sent_at, created_at
  FROM message_deliveries
 WHERE message_id = ANY($1)
 ORDER BY message_id, seq;`
	rows, err := ex.Query(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("load deliveries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			d      model.Delivery
			errMsg *string
			sentAt *time.Time
		)
		if err := rows.Scan(&d.ID, &d.MessageID, &d.Platform, &d.Destination, &d.Status,
			&d.ProviderResponse, &errMsg, &sentAt, &d.CreatedAt); err != nil {
			return err
		}
		if errMsg != nil {
			d.ErrorMessage = *errMsg
		}
		if sentAt != nil {
			d.SentAt = *sentAt
		}
		if m := byID[d.MessageID]; m != nil {
			m.Deliveries = append(m.Deliveries, &d)
		}
	}
	return rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
