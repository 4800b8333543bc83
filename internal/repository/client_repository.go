package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

// clientRepository implements ClientRepository using PostgreSQL
type clientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

// List retrieves all clients, newest first
func (r *clientRepository) List(ctx context.Context) ([]*models.Client, error) {
	query := `
		SELECT id, name, phone, budget, interest, status, created_at
		FROM clients
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		client := &models.Client{}
		var budget sql.NullFloat64
		var createdAt sql.NullTime
		err := rows.Scan(
			&client.ID,
			&client.Name,
			&client.Phone,
			&budget,
			&client.Interest,
			&client.Status,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		client.Budget = budget.Float64
		if createdAt.Valid {
			client.CreatedAt = &createdAt.Time
		}
		clients = append(clients, client)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}

	return clients, nil
}

// Insert adds a new client row
func (r *clientRepository) Insert(ctx context.Context, row *models.ClientInsert) error {
	query := `
		INSERT INTO clients (name, phone, budget, interest, status)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(
		ctx,
		query,
		row.Name,
		row.Phone,
		row.Budget,
		row.Interest,
		row.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert client: %w", err)
	}

	return nil
}
