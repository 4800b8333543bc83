package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

// propertyRecord is the GORM mapping of the properties table
type propertyRecord struct {
	ID        int64       `gorm:"primaryKey;autoIncrement"`
	Title     string      `gorm:"not null"`
	Price     float64     `gorm:"not null;default:0"`
	Area      float64     `gorm:"not null;default:0"`
	Location  string      `gorm:"not null"`
	Type      string      `gorm:"not null"`
	Status    string      `gorm:"not null"`
	DateAdded models.Date `gorm:"column:date_added"`
	CreatedAt time.Time   `gorm:"autoCreateTime;index"`
}

func (propertyRecord) TableName() string { return models.CollectionProperties }

// clientRecord is the GORM mapping of the clients table
type clientRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"not null"`
	Phone     string    `gorm:"not null"`
	Budget    float64   `gorm:"default:0"`
	Interest  string    `gorm:"not null"`
	Status    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (clientRecord) TableName() string { return models.CollectionClients }

// AutoMigrate creates or updates both tables
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&propertyRecord{}, &clientRecord{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}

// gormPropertyRepository implements PropertyRepository using GORM
type gormPropertyRepository struct {
	db *gorm.DB
}

// NewGormPropertyRepository creates a property repository over GORM
func NewGormPropertyRepository(db *gorm.DB) PropertyRepository {
	return &gormPropertyRepository{db: db}
}

func (r *gormPropertyRepository) List(ctx context.Context) ([]*models.Property, error) {
	var records []propertyRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	properties := make([]*models.Property, 0, len(records))
	for i := range records {
		rec := records[i]
		properties = append(properties, &models.Property{
			ID:        rec.ID,
			Title:     rec.Title,
			Price:     rec.Price,
			Area:      rec.Area,
			Location:  rec.Location,
			Type:      rec.Type,
			Status:    rec.Status,
			DateAdded: rec.DateAdded,
			CreatedAt: &rec.CreatedAt,
		})
	}
	return properties, nil
}

func (r *gormPropertyRepository) Insert(ctx context.Context, row *models.PropertyInsert) error {
	record := &propertyRecord{
		Title:     row.Title,
		Price:     row.Price,
		Area:      row.Area,
		Location:  row.Location,
		Type:      row.Type,
		Status:    row.Status,
		DateAdded: row.DateAdded,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

// gormClientRepository implements ClientRepository using GORM
type gormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a client repository over GORM
func NewGormClientRepository(db *gorm.DB) ClientRepository {
	return &gormClientRepository{db: db}
}

func (r *gormClientRepository) List(ctx context.Context) ([]*models.Client, error) {
	var records []clientRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	clients := make([]*models.Client, 0, len(records))
	for i := range records {
		rec := records[i]
		clients = append(clients, &models.Client{
			ID:        rec.ID,
			Name:      rec.Name,
			Phone:     rec.Phone,
			Budget:    rec.Budget,
			Interest:  rec.Interest,
			Status:    rec.Status,
			CreatedAt: &rec.CreatedAt,
		})
	}
	return clients, nil
}

func (r *gormClientRepository) Insert(ctx context.Context, row *models.ClientInsert) error {
	record := &clientRecord{
		Name:     row.Name,
		Phone:    row.Phone,
		Budget:   row.Budget,
		Interest: row.Interest,
		Status:   row.Status,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to insert client: %w", err)
	}
	return nil
}
