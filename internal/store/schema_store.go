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
	"github.com/jackc/pgx/v5/pgconn"
)

const schemaColumns = `id, owner_id, name, label, fields, icon, color, default_tags, created_at`

// CreateSchema inserts a schema. Name uniqueness per owner is enforced by
// the database constraint, not by a pre-check, so concurrent duplicate
// creates cannot race past each other; the loser gets ErrConflict.
func (s *PostgresStore) CreateSchema(ctx context.Context, p domain.CreateSchemaParams) (*domain.EventSchema, error) {
	sc := &domain.EventSchema{
		ID:          uuid.NewString(),
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Label:       p.Label,
		Fields:      p.Fields,
		Icon:        p.Icon,
		Color:       p.Color,
		DefaultTags: domain.NormalizeTags(p.DefaultTags),
		CreatedAt:   time.Now().UnixMilli(),
	}

	fieldsText, err := json.Marshal(sc.Fields)
	if err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}
	tagsText, err := encodeTags(sc.DefaultTags)
	if err != nil {
		return nil, fmt.Errorf("encoding default tags: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO event_schemas (id, owner_id, name, label, fields, icon, color, default_tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, sc.ID, sc.OwnerID, sc.Name, sc.Label, string(fieldsText), sc.Icon, sc.Color, tagsText, sc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("inserting schema: %w", err)
	}
	return sc, nil
}

func (s *PostgresStore) GetSchema(ctx context.Context, ownerID, id string) (*domain.EventSchema, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+schemaColumns+`
		FROM event_schemas WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	sc, err := scanSchema(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying schema: %w", err)
	}
	return sc, nil
}

func (s *PostgresStore) ListSchemas(ctx context.Context, ownerID string) ([]domain.EventSchema, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+schemaColumns+`
		FROM event_schemas WHERE owner_id = $1
		ORDER BY name
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying schemas: %w", err)
	}
	defer rows.Close()

	schemas := []domain.EventSchema{}
	for rows.Next() {
		sc, err := scanSchema(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schema: %w", err)
		}
		schemas = append(schemas, *sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading schemas: %w", err)
	}
	return schemas, nil
}

// UpdateSchema applies a partial update. The name column is never part of
// the SET list: names are immutable after creation.
func (s *PostgresStore) UpdateSchema(ctx context.Context, ownerID, id string, p domain.UpdateSchemaParams) (*domain.EventSchema, error) {
	sets := []string{}
	args := []any{}
	argIdx := 1

	if p.Label != nil {
		sets = append(sets, fmt.Sprintf("label = $%d", argIdx))
		args = append(args, *p.Label)
		argIdx++
	}
	if p.Fields != nil {
		fieldsText, err := json.Marshal(*p.Fields)
		if err != nil {
			return nil, fmt.Errorf("encoding fields: %w", err)
		}
		sets = append(sets, fmt.Sprintf("fields = $%d", argIdx))
		args = append(args, string(fieldsText))
		argIdx++
	}
	if p.Icon != nil {
		sets = append(sets, fmt.Sprintf("icon = $%d", argIdx))
		args = append(args, *p.Icon)
		argIdx++
	}
	if p.Color != nil {
		sets = append(sets, fmt.Sprintf("color = $%d", argIdx))
		args = append(args, *p.Color)
		argIdx++
	}
	if p.DefaultTags != nil {
		tagsText, err := encodeTags(domain.NormalizeTags(*p.DefaultTags))
		if err != nil {
			return nil, fmt.Errorf("encoding default tags: %w", err)
		}
		sets = append(sets, fmt.Sprintf("default_tags = $%d", argIdx))
		args = append(args, tagsText)
		argIdx++
	}

	if len(sets) == 0 {
		return s.GetSchema(ctx, ownerID, id)
	}

	query := fmt.Sprintf(`
		UPDATE event_schemas SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING `+schemaColumns,
		strings.Join(sets, ", "), argIdx, argIdx+1)
	args = append(args, id, ownerID)

	sc, err := scanSchema(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("updating schema: %w", err)
	}
	return sc, nil
}

// DeleteSchema removes the schema only. Events whose type matches the
// schema's name are never touched.
func (s *PostgresStore) DeleteSchema(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM event_schemas WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting schema: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSchema(row pgx.Row) (*domain.EventSchema, error) {
	var sc domain.EventSchema
	var fieldsText, tagsText string
	err := row.Scan(&sc.ID, &sc.OwnerID, &sc.Name, &sc.Label, &fieldsText,
		&sc.Icon, &sc.Color, &tagsText, &sc.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fieldsText), &sc.Fields); err != nil {
		return nil, fmt.Errorf("decoding fields for schema %s: %w", sc.ID, err)
	}
	if err := json.Unmarshal([]byte(tagsText), &sc.DefaultTags); err != nil {
		return nil, fmt.Errorf("decoding default tags for schema %s: %w", sc.ID, err)
	}
	return &sc, nil
}
