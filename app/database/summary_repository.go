package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var _ SummaryRepository = (*SummaryRepo)(nil)

const summaryColumns = `id, newsletter_id, summary_text, key_points, topics, sentiment,
	read_time_minutes, model_used, created_at`

type SummaryRepo struct {
	db *DB
}

func NewSummaryRepository(db *DB) *SummaryRepo {
	return &SummaryRepo{db: db}
}

func (r *SummaryRepo) GetSummary(newsletterID string) (*Summary, error) {
	row := r.db.QueryRow(`SELECT `+summaryColumns+` FROM summaries WHERE newsletter_id = ?`, newsletterID)

	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	return s, nil
}

func (r *SummaryRepo) GetSummaries(newsletterIDs []string) (map[string]*Summary, error) {
	summaries := make(map[string]*Summary, len(newsletterIDs))
	if len(newsletterIDs) == 0 {
		return summaries, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(newsletterIDs)), ",")
	args := make([]any, len(newsletterIDs))
	for i, id := range newsletterIDs {
		args[i] = id
	}

	rows, err := r.db.Query(`SELECT `+summaryColumns+` FROM summaries WHERE newsletter_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summaries[s.NewsletterID] = s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary rows: %w", err)
	}

	return summaries, nil
}

// InsertSummary relies on the unique newsletter_id constraint: a second insert
// for the same newsletter is ignored and reported as not inserted.
func (r *SummaryRepo) InsertSummary(s *Summary) (bool, error) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.Exec(`
		INSERT OR IGNORE INTO summaries (
			id, newsletter_id, summary_text, key_points, topics, sentiment,
			read_time_minutes, model_used, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.NewsletterID, s.SummaryText, s.KeyPoints, s.Topics, s.Sentiment,
		s.ReadTimeMinutes, s.ModelUsed, s.CreatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert summary: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected == 1, nil
}

func scanSummary(row rowScanner) (*Summary, error) {
	var s Summary
	err := row.Scan(
		&s.ID, &s.NewsletterID, &s.SummaryText, &s.KeyPoints, &s.Topics, &s.Sentiment,
		&s.ReadTimeMinutes, &s.ModelUsed, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
