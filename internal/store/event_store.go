package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dnayak/lifelog/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

const eventColumns = `id, owner_id, timestamp, event_type, data, tags, source, created_at`

// CreateEvent inserts one event. The id and created_at are assigned here; a
// zero Source falls back to "manual". data and tags are serialized to text
// at this boundary and decoded again on the way out.
func (s *PostgresStore) CreateEvent(ctx context.Context, p domain.CreateEventParams) (*domain.Event, error) {
	ev := &domain.Event{
		ID:        uuid.NewString(),
		OwnerID:   p.OwnerID,
		Timestamp: p.Timestamp,
		EventType: p.EventType,
		Data:      p.Data,
		Tags:      domain.NormalizeTags(p.Tags),
		Source:    p.Source,
		CreatedAt: time.Now().UnixMilli(),
	}
	if ev.Source == "" {
		ev.Source = domain.SourceManual
	}

	dataText, err := encodeData(ev.Data)
	if err != nil {
		return nil, fmt.Errorf("encoding data: %w", err)
	}
	tagsText, err := encodeTags(ev.Tags)
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO events (id, owner_id, timestamp, event_type, data, tags, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ev.ID, ev.OwnerID, ev.Timestamp, ev.EventType, dataText, tagsText, ev.Source, ev.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting event: %w", err)
	}
	return ev, nil
}

// GetEvent fetches one event scoped to its owner. Another owner's event is
// indistinguishable from a missing one.
func (s *PostgresStore) GetEvent(ctx context.Context, ownerID, id string) (*domain.Event, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM events WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying event: %w", err)
	}
	return ev, nil
}

// ListEvents returns a page ordered by timestamp descending. The tags filter
// is an intersection: a matching event carries every requested tag.
func (s *PostgresStore) ListEvents(ctx context.Context, ownerID string, f domain.EventFilter) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE owner_id = $1`
	args := []any{ownerID}
	argIdx := 2

	if f.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, f.EventType)
		argIdx++
	}
	if f.Start != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", argIdx)
		args = append(args, *f.Start)
		argIdx++
	}
	if f.End != nil {
		query += fmt.Sprintf(" AND timestamp <= $%d", argIdx)
		args = append(args, *f.End)
		argIdx++
	}
	if len(f.Tags) > 0 {
		wanted, err := json.Marshal(domain.NormalizeTags(f.Tags))
		if err != nil {
			return nil, fmt.Errorf("encoding tags filter: %w", err)
		}
		query += fmt.Sprintf(" AND tags::jsonb @> $%d::jsonb", argIdx)
		args = append(args, string(wanted))
		argIdx++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query += fmt.Sprintf(" ORDER BY timestamp DESC, created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return events, nil
}

// UpdateEvent applies a partial update: supplied fields fully replace the
// stored values, omitted fields are untouched. owner_id and created_at can
// never change.
func (s *PostgresStore) UpdateEvent(ctx context.Context, ownerID, id string, p domain.UpdateEventParams) (*domain.Event, error) {
	sets := []string{}
	args := []any{}
	argIdx := 1

	if p.EventType != nil {
		sets = append(sets, fmt.Sprintf("event_type = $%d", argIdx))
		args = append(args, *p.EventType)
		argIdx++
	}
	if p.Timestamp != nil {
		sets = append(sets, fmt.Sprintf("timestamp = $%d", argIdx))
		args = append(args, *p.Timestamp)
		argIdx++
	}
	if p.Data != nil {
		dataText, err := encodeData(p.Data)
		if err != nil {
			return nil, fmt.Errorf("encoding data: %w", err)
		}
		sets = append(sets, fmt.Sprintf("data = $%d", argIdx))
		args = append(args, dataText)
		argIdx++
	}
	if p.Tags != nil {
		tagsText, err := encodeTags(domain.NormalizeTags(*p.Tags))
		if err != nil {
			return nil, fmt.Errorf("encoding tags: %w", err)
		}
		sets = append(sets, fmt.Sprintf("tags = $%d", argIdx))
		args = append(args, tagsText)
		argIdx++
	}

	if len(sets) == 0 {
		return s.GetEvent(ctx, ownerID, id)
	}

	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING `+eventColumns,
		strings.Join(sets, ", "), argIdx, argIdx+1)
	args = append(args, id, ownerID)

	ev, err := scanEvent(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("updating event: %w", err)
	}
	return ev, nil
}

func (s *PostgresStore) DeleteEvent(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM events WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDistinctTypes returns the sorted set of event types the owner has in
// use.
func (s *PostgresStore) ListDistinctTypes(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT event_type FROM events
		WHERE owner_id = $1
		ORDER BY event_type
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying event types: %w", err)
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning event type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading event types: %w", err)
	}
	return types, nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var ev domain.Event
	var dataText *string
	var tagsText string
	err := row.Scan(&ev.ID, &ev.OwnerID, &ev.Timestamp, &ev.EventType,
		&dataText, &tagsText, &ev.Source, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	if dataText != nil {
		ev.Data = domain.NewEventData()
		if err := json.Unmarshal([]byte(*dataText), ev.Data); err != nil {
			return nil, fmt.Errorf("decoding data for event %s: %w", ev.ID, err)
		}
	}
	if err := json.Unmarshal([]byte(tagsText), &ev.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags for event %s: %w", ev.ID, err)
	}
	return &ev, nil
}

func encodeData(d *domain.EventData) (*string, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
