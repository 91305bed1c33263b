package models

import (
	"time"

	"github.com/mattn/go-nulltype"
	"gorm.io/gorm"
)

// RouteHistory is a route completed while signed out. Rows migrate to
// the backend once a session appears and are removed after the remote
// save is confirmed.
type RouteHistory struct {
	ID                       string              `json:"id" gorm:"primaryKey"`
	StartAddress             nulltype.NullString `json:"start_address"`
	EndAddress               nulltype.NullString `json:"end_address"`
	StartLat                 float64             `json:"start_lat"`
	StartLng                 float64             `json:"start_lng"`
	EndLat                   float64             `json:"end_lat"`
	EndLng                   float64             `json:"end_lng"`
	KilometersDistance       float64             `json:"kilometers_distance"`
	EstimatedDurationSeconds int                 `json:"estimated_duration_seconds"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (r RouteHistory) TableName() string {
	return "route_history"
}

func FindRouteHistory(db *gorm.DB) ([]RouteHistory, error) {
	var items []RouteHistory
	err := db.Order("created_at desc").Find(&items).Error
	return items, err
}

func FindRouteHistoryOldestFirst(db *gorm.DB) ([]RouteHistory, error) {
	var items []RouteHistory
	err := db.Order("created_at asc").Find(&items).Error
	return items, err
}

func CountRouteHistory(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&RouteHistory{}).Count(&count).Error
	return count, err
}

func DeleteRouteHistory(db *gorm.DB, id string) error {
	return db.Unscoped().Where("id = ?", id).Delete(&RouteHistory{}).Error
}
