package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-nulltype"
	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/db/models"
	"github.com/supmap/navd/internal/metrics"
	"gorm.io/gorm"
)

// LocalStore keeps route history in the device database.
type LocalStore struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

func NewLocalStore(db *gorm.DB, metrics *metrics.Metrics) *LocalStore {
	return &LocalStore{db: db, metrics: metrics}
}

func (s *LocalStore) Save(ctx context.Context, item api.RouteHistoryItem) (api.RouteHistoryItem, error) {
	row := models.RouteHistory{
		ID:                       uuid.NewString(),
		StartLat:                 item.StartPoint.Latitude,
		StartLng:                 item.StartPoint.Longitude,
		EndLat:                   item.EndPoint.Latitude,
		EndLng:                   item.EndPoint.Longitude,
		KilometersDistance:       item.KilometersDistance,
		EstimatedDurationSeconds: int(item.EstimatedDurationInSeconds),
		CreatedAt:                time.Now(),
	}
	if item.StartAddress != "" {
		row.StartAddress = nulltype.NullStringOf(item.StartAddress)
	}
	if item.EndAddress != "" {
		row.EndAddress = nulltype.NullStringOf(item.EndAddress)
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return api.RouteHistoryItem{}, fmt.Errorf("failed to save route history: %w", err)
	}
	if s.metrics != nil {
		s.metrics.IncrementHistorySaves("local")
	}
	return rowToItem(row), nil
}

func (s *LocalStore) List(ctx context.Context) ([]api.RouteHistoryItem, error) {
	rows, err := models.FindRouteHistory(s.db.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list route history: %w", err)
	}
	items := make([]api.RouteHistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToItem(row))
	}
	return items, nil
}

func (s *LocalStore) delete(ctx context.Context, id string) error {
	return models.DeleteRouteHistory(s.db.WithContext(ctx), id)
}

func rowToItem(row models.RouteHistory) api.RouteHistoryItem {
	return api.RouteHistoryItem{
		ID:                         row.ID,
		StartAddress:               row.StartAddress.StringValue(),
		EndAddress:                 row.EndAddress.StringValue(),
		StartPoint:                 api.RoutePoint{Latitude: row.StartLat, Longitude: row.StartLng},
		EndPoint:                   api.RoutePoint{Latitude: row.EndLat, Longitude: row.EndLng},
		KilometersDistance:         row.KilometersDistance,
		EstimatedDurationInSeconds: int64(row.EstimatedDurationSeconds),
		CreatedAt:                  row.CreatedAt,
		UserID:                     api.LocalUserID,
	}
}
