package gallery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Photo is a gallery entry.
type Photo struct {
	ID        string    `json:"id"`
	Key       string    `json:"-"`
	URL       string    `json:"url"`
	Category  string    `json:"category"`
	Caption   string    `json:"caption,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Banner is a promotional message shown on the booking site.
type Banner struct {
	ID       string     `json:"id"`
	Message  string     `json:"message"`
	Active   bool       `json:"active"`
	StartsAt *time.Time `json:"startsAt,omitempty"`
	EndsAt   *time.Time `json:"endsAt,omitempty"`
}

// ErrNotFound marks a missing photo or banner.
var ErrNotFound = errors.New("gallery: not found")

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists gallery metadata and banners.
type Repository struct {
	db db
}

// NewRepository creates a gallery repository.
func NewRepository(db db) *Repository {
	return &Repository{db: db}
}

// ListPhotos returns photos, optionally filtered by category, newest first.
func (r *Repository) ListPhotos(ctx context.Context, category string) ([]Photo, error) {
	query := `SELECT id, s3_key, url, category, COALESCE(caption, ''), created_at
	          FROM gallery_photos`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("gallery: list photos: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.Key, &p.URL, &p.Category, &p.Caption, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("gallery: scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// AddPhoto records an uploaded photo.
func (r *Repository) AddPhoto(ctx context.Context, key, url, category, caption string) (*Photo, error) {
	p := Photo{Key: key, URL: url, Category: category, Caption: caption}
	err := r.db.QueryRow(ctx,
		`INSERT INTO gallery_photos (s3_key, url, category, caption)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		key, url, category, caption).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("gallery: add photo: %w", err)
	}
	return &p, nil
}

// DeletePhoto removes the metadata row and returns the S3 key for cleanup.
func (r *Repository) DeletePhoto(ctx context.Context, id string) (string, error) {
	var key string
	err := r.db.QueryRow(ctx,
		`DELETE FROM gallery_photos WHERE id = $1 RETURNING s3_key`, id).
		Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("gallery: delete photo: %w", err)
	}
	return key, nil
}

// ActiveBanners returns banners live at the given time.
func (r *Repository) ActiveBanners(ctx context.Context, now time.Time) ([]Banner, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, message, active, starts_at, ends_at
		 FROM banners
		 WHERE active
		   AND (starts_at IS NULL OR starts_at <= $1)
		   AND (ends_at IS NULL OR ends_at > $1)
		 ORDER BY starts_at NULLS FIRST`, now)
	if err != nil {
		return nil, fmt.Errorf("gallery: active banners: %w", err)
	}
	defer rows.Close()

	var banners []Banner
	for rows.Next() {
		var b Banner
		if err := rows.Scan(&b.ID, &b.Message, &b.Active, &b.StartsAt, &b.EndsAt); err != nil {
			return nil, fmt.Errorf("gallery: scan banner: %w", err)
		}
		banners = append(banners, b)
	}
	return banners, rows.Err()
}

// CreateBanner inserts a banner.
func (r *Repository) CreateBanner(ctx context.Context, b Banner) (*Banner, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO banners (message, active, starts_at, ends_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		b.Message, b.Active, b.StartsAt, b.EndsAt).
		Scan(&b.ID)
	if err != nil {
		return nil, fmt.Errorf("gallery: create banner: %w", err)
	}
	return &b, nil
}

// UpdateBanner replaces a banner's fields.
func (r *Repository) UpdateBanner(ctx context.Context, b Banner) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE banners SET message = $2, active = $3, starts_at = $4, ends_at = $5 WHERE id = $1`,
		b.ID, b.Message, b.Active, b.StartsAt, b.EndsAt)
	if err != nil {
		return fmt.Errorf("gallery: update banner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBanner removes a banner.
func (r *Repository) DeleteBanner(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("gallery: delete banner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
