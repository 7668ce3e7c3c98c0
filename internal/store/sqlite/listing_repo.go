package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"unimarket/internal/domain"
)

// ListingRepo is a thin read model over the externally-owned listings table;
// the messaging core never mutates listings beyond seeding.
type ListingRepo struct {
	db *sql.DB
}

func NewListingRepo(db *sql.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

var _ domain.ListingRepository = (*ListingRepo)(nil)

func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO listings (owner_id, title, image_url, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, l.OwnerID, l.Title, l.ImageURL)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	l.ID = id
	return nil
}

func (r *ListingRepo) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	l := &domain.Listing{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, image_url, created_at
		FROM listings
		WHERE id = ?
	`, id).Scan(
		&l.ID,
		&l.OwnerID,
		&l.Title,
		&l.ImageURL,
		&l.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}
