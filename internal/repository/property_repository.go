package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

// propertyRepository implements PropertyRepository using PostgreSQL
type propertyRepository struct {
	db *sql.DB
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *sql.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

// List retrieves all properties, newest first
func (r *propertyRepository) List(ctx context.Context) ([]*models.Property, error) {
	query := `
		SELECT id, title, price, area, location, type, status, date_added, created_at
		FROM properties
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	properties := []*models.Property{}
	for rows.Next() {
		property := &models.Property{}
		var createdAt sql.NullTime
		err := rows.Scan(
			&property.ID,
			&property.Title,
			&property.Price,
			&property.Area,
			&property.Location,
			&property.Type,
			&property.Status,
			&property.DateAdded,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		if createdAt.Valid {
			property.CreatedAt = &createdAt.Time
		}
		properties = append(properties, property)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}

	return properties, nil
}

// Insert adds a new property row
func (r *propertyRepository) Insert(ctx context.Context, row *models.PropertyInsert) error {
	query := `
		INSERT INTO properties (title, price, area, location, type, status, date_added)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(
		ctx,
		query,
		row.Title,
		row.Price,
		row.Area,
		row.Location,
		row.Type,
		row.Status,
		row.DateAdded,
	)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}

	return nil
}
