package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

// PropertyRepository defines the remote table holding property listings.
// List returns every row ordered by creation time, newest first.
type PropertyRepository interface {
	List(ctx context.Context) ([]*models.Property, error)
	Insert(ctx context.Context, row *models.PropertyInsert) error
}

// ClientRepository defines the remote table holding client leads
type ClientRepository interface {
	List(ctx context.Context) ([]*models.Client, error)
	Insert(ctx context.Context, row *models.ClientInsert) error
}

// HealthChecker is implemented by backends that can report reachability
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Backend bundles both tables of one persistence backend
type Backend struct {
	Name       string
	Properties PropertyRepository
	Clients    ClientRepository
	Health     HealthChecker
	Close      func() error
}

// NewPostgresBackend wires both tables to a PostgreSQL connection
func NewPostgresBackend(db *sql.DB, health HealthChecker, closeFn func() error) *Backend {
	return &Backend{
		Name:       "postgres",
		Properties: NewPropertyRepository(db),
		Clients:    NewClientRepository(db),
		Health:     health,
		Close:      closeFn,
	}
}

// NewGormBackend wires both tables to a GORM handle
func NewGormBackend(db *gorm.DB, health HealthChecker, closeFn func() error) *Backend {
	return &Backend{
		Name:       "sqlite",
		Properties: NewGormPropertyRepository(db),
		Clients:    NewGormClientRepository(db),
		Health:     health,
		Close:      closeFn,
	}
}
