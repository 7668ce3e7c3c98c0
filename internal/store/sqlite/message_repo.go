package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"unimarket/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

// enrichedSelect joins the display fields onto a message row. Users and
// listings are LEFT JOINed so a message survives its participants or listing
// being gone.
const enrichedSelect = `
	SELECT m.id, m.sender_id, m.receiver_id, m.listing_id, m.content, m.image_url, m.is_read, m.created_at,
	       su.username, su.avatar_url,
	       ru.username, ru.avatar_url,
	       l.title, l.image_url
	FROM messages m
	LEFT JOIN users su ON su.id = m.sender_id
	LEFT JOIN users ru ON ru.id = m.receiver_id
	LEFT JOIN listings l ON l.id = m.listing_id
`

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, listing_id, content, image_url, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID,
		m.SenderID,
		m.ReceiverID,
		m.ListingID,
		m.Content,
		m.ImageURL,
		m.IsRead,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	m := &domain.Message{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, sender_id, receiver_id, listing_id, content, image_url, is_read, created_at
		FROM messages
		WHERE id = ?
	`, id).Scan(
		&m.ID,
		&m.SenderID,
		&m.ReceiverID,
		&m.ListingID,
		&m.Content,
		&m.ImageURL,
		&m.IsRead,
		&m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) GetEnriched(ctx context.Context, id string) (*domain.EnrichedMessage, error) {
	row := r.db.QueryRowContext(ctx, enrichedSelect+` WHERE m.id = ?`, id)
	m, err := scanEnriched(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get enriched message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, listing_id, content, image_url, is_read, created_at
		FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages for user: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(
			&m.ID,
			&m.SenderID,
			&m.ReceiverID,
			&m.ListingID,
			&m.Content,
			&m.ImageURL,
			&m.IsRead,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *MessageRepo) ListThread(ctx context.Context, userID, otherID int64, limit, offset int) ([]*domain.EnrichedMessage, error) {
	rows, err := r.db.QueryContext(ctx, enrichedSelect+`
		WHERE (m.sender_id = ? AND m.receiver_id = ?)
		   OR (m.sender_id = ? AND m.receiver_id = ?)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ? OFFSET ?
	`, userID, otherID, otherID, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list thread: %w", err)
	}
	defer rows.Close()
	return collectEnriched(rows)
}

func (r *MessageRepo) ListForListing(ctx context.Context, userID, listingID int64) ([]*domain.EnrichedMessage, error) {
	rows, err := r.db.QueryContext(ctx, enrichedSelect+`
		WHERE m.listing_id = ? AND (m.sender_id = ? OR m.receiver_id = ?)
		ORDER BY m.created_at DESC, m.id DESC
	`, listingID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages for listing: %w", err)
	}
	defer rows.Close()
	return collectEnriched(rows)
}

func (r *MessageRepo) MarkRead(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE messages SET is_read = 1 WHERE id = ?
	`, id); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (r *MessageRepo) MarkConversationRead(ctx context.Context, receiverID, senderID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET is_read = 1
		WHERE receiver_id = ? AND sender_id = ? AND is_read = 0
	`, receiverID, senderID)
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (r *MessageRepo) CountUnread(ctx context.Context, receiverID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages WHERE receiver_id = ? AND is_read = 0
	`, receiverID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnriched(row rowScanner) (*domain.EnrichedMessage, error) {
	m := &domain.EnrichedMessage{}
	var senderName, receiverName sql.NullString
	if err := row.Scan(
		&m.ID,
		&m.SenderID,
		&m.ReceiverID,
		&m.ListingID,
		&m.Content,
		&m.ImageURL,
		&m.IsRead,
		&m.CreatedAt,
		&senderName,
		&m.SenderAvatar,
		&receiverName,
		&m.ReceiverAvatar,
		&m.ListingTitle,
		&m.ListingImage,
	); err != nil {
		return nil, err
	}
	m.SenderName = senderName.String
	m.ReceiverName = receiverName.String
	return m, nil
}

func collectEnriched(rows *sql.Rows) ([]*domain.EnrichedMessage, error) {
	var res []*domain.EnrichedMessage
	for rows.Next() {
		m, err := scanEnriched(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enriched message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
