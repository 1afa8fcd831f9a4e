package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ DigestRepository = (*DigestRepo)(nil)

type DigestRepo struct {
	db *DB
}

func NewDigestRepository(db *DB) *DigestRepo {
	return &DigestRepo{db: db}
}

func (r *DigestRepo) InsertDigest(d *Digest) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO digests (id, date_range, themes, highlights, action_items, total_newsletters, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.DateRange, d.Themes, d.Highlights, d.ActionItems, d.TotalNewsletters, d.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert digest: %w", err)
	}

	return nil
}

func (r *DigestRepo) GetLatestDigest() (*Digest, error) {
	var d Digest
	err := r.db.QueryRow(`
		SELECT id, date_range, themes, highlights, action_items, total_newsletters, created_at
		FROM digests
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&d.ID, &d.DateRange, &d.Themes, &d.Highlights, &d.ActionItems, &d.TotalNewsletters, &d.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest digest: %w", err)
	}

	return &d, nil
}
