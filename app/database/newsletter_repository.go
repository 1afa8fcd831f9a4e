package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var _ NewsletterRepository = (*NewsletterRepo)(nil)

const newsletterColumns = `id, content_id, COALESCE(external_id, ''), subject, sender_name, sender_email,
	received_at, raw_body, parsed_body, is_forwarded,
	COALESCE(original_sender_name, ''), COALESCE(original_sender_email, ''),
	is_newsletter, source, created_at`

type NewsletterRepo struct {
	db *DB
}

func NewNewsletterRepository(db *DB) *NewsletterRepo {
	return &NewsletterRepo{db: db}
}

// InsertNewsletter stores the newsletter under a fresh UUID and returns it.
func (r *NewsletterRepo) InsertNewsletter(n *Newsletter) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	receivedAt := n.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = now
	}

	_, err := r.db.Exec(`
		INSERT INTO newsletters (
			id, content_id, external_id, subject, sender_name, sender_email,
			received_at, raw_body, parsed_body, is_forwarded,
			original_sender_name, original_sender_email, is_newsletter, source, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, n.ContentID, nullIfEmpty(n.ExternalID), n.Subject, n.SenderName, n.SenderEmail,
		receivedAt.UTC(), n.RawBody, n.ParsedBody, n.IsForwarded,
		nullIfEmpty(n.OriginalSenderName), nullIfEmpty(n.OriginalSenderEmail),
		n.IsNewsletter, n.Source, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert newsletter: %w", err)
	}

	n.ID = id
	n.ReceivedAt = receivedAt.UTC()
	n.CreatedAt = now

	return id, nil
}

func (r *NewsletterRepo) GetNewsletter(id string) (*Newsletter, error) {
	row := r.db.QueryRow(`SELECT `+newsletterColumns+` FROM newsletters WHERE id = ?`, id)

	n, err := scanNewsletter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get newsletter: %w", err)
	}

	return n, nil
}

func (r *NewsletterRepo) GetNewsletters(limit, offset int) ([]Newsletter, error) {
	rows, err := r.db.Query(`
		SELECT `+newsletterColumns+`
		FROM newsletters
		ORDER BY received_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get newsletters: %w", err)
	}
	defer rows.Close()

	newsletters := []Newsletter{}
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan newsletter row: %w", err)
		}
		newsletters = append(newsletters, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating newsletter rows: %w", err)
	}

	return newsletters, nil
}

func (r *NewsletterRepo) GetNewsletterCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM newsletters").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get newsletter count: %w", err)
	}
	return count, nil
}

// FindDuplicate matches on the content fingerprint, or on the external id when
// one is given.
func (r *NewsletterRepo) FindDuplicate(externalID, contentID string) (*string, error) {
	query := `SELECT id FROM newsletters WHERE content_id = ? LIMIT 1`
	args := []any{contentID}

	if externalID != "" {
		query = `SELECT id FROM newsletters WHERE external_id = ? OR content_id = ? LIMIT 1`
		args = []any{externalID, contentID}
	}

	return r.findID(query, args...)
}

// FindFeedItemDuplicate matches RSS items by guid, or by the item link appearing
// in a stored parsed body. An empty link never matches.
func (r *NewsletterRepo) FindFeedItemDuplicate(guid, link string) (*string, error) {
	conditions := []string{}
	args := []any{}

	if guid != "" {
		conditions = append(conditions, "external_id = ?")
		args = append(args, guid)
	}
	if link != "" {
		conditions = append(conditions, "parsed_body LIKE ?")
		args = append(args, "%"+link+"%")
	}
	if len(conditions) == 0 {
		return nil, nil
	}

	query := `SELECT id FROM newsletters WHERE ` + strings.Join(conditions, " OR ") + ` LIMIT 1`
	return r.findID(query, args...)
}

func (r *NewsletterRepo) findID(query string, args ...any) (*string, error) {
	var id string
	err := r.db.QueryRow(query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return &id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNewsletter(row rowScanner) (*Newsletter, error) {
	var n Newsletter
	err := row.Scan(
		&n.ID, &n.ContentID, &n.ExternalID, &n.Subject, &n.SenderName, &n.SenderEmail,
		&n.ReceivedAt, &n.RawBody, &n.ParsedBody, &n.IsForwarded,
		&n.OriginalSenderName, &n.OriginalSenderEmail,
		&n.IsNewsletter, &n.Source, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
