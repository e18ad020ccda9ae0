package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

const messageColumns = `id, sender_id, receiver_id, content, is_read, created_at`

func (r *MessageRepo) Create(ctx context.Context, senderID, receiverID int64, content string) (model.Message, error) {
	if r.pool == nil {
		return model.Message{}, fmt.Errorf("postgres pool is nil")
	}
	if senderID <= 0 || receiverID <= 0 || strings.TrimSpace(content) == "" {
		return model.Message{}, fmt.Errorf("invalid message payload")
	}

	message, err := scanMessage(r.pool.QueryRow(ctx, `
INSERT INTO messages (sender_id, receiver_id, content, is_read, created_at)
VALUES ($1, $2, $3, FALSE, NOW())
RETURNING `+messageColumns+`
`, senderID, receiverID, strings.TrimSpace(content)))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return model.Message{}, ErrUserNotFound
		}
		return model.Message{}, fmt.Errorf("create message: %w", err)
	}
	return message, nil
}

// Conversation returns the two-way message history between two users, newest
// first.
func (r *MessageRepo) Conversation(ctx context.Context, userA, userB int64, limit, offset int) ([]model.Message, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE (sender_id = $1 AND receiver_id = $2)
   OR (sender_id = $2 AND receiver_id = $1)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4
`, userA, userB, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// MarkConversationRead flags everything the peer sent to the reader as read
// and reports how many rows flipped.
func (r *MessageRepo) MarkConversationRead(ctx context.Context, readerID, peerID int64) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE messages SET is_read = TRUE
WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE
`, readerID, peerID)
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepo) CountUnread(ctx context.Context, userID int64) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int64
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND is_read = FALSE
`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func scanMessage(row pgx.Row) (model.Message, error) {
	var message model.Message
	err := row.Scan(
		&message.ID,
		&message.SenderID,
		&message.ReceiverID,
		&message.Content,
		&message.IsRead,
		&message.CreatedAt,
	)
	if err != nil {
		return model.Message{}, err
	}
	return message, nil
}
