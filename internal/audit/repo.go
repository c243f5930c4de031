package audit

import (
	"context"
	"errors"
	"time"

	"github.com/suPer8Hu/supportbot/internal/events"
	"github.com/suPer8Hu/supportbot/internal/intent"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Migrate() error {
	return r.db.AutoMigrate(&Prediction{}, &Event{})
}

// RecordPrediction appends to the prediction log.
func (r *Repo) RecordPrediction(ctx context.Context, text string, label intent.Label, confidence float64) error {
	return r.db.WithContext(ctx).Create(&Prediction{
		Text:       text,
		Intent:     string(label),
		Confidence: confidence,
	}).Error
}

// ListPredictions returns predictions in DESC id order (newest -> oldest).
func (r *Repo) ListPredictions(ctx context.Context, limit int) ([]Prediction, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var out []Prediction
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CountPredictionsSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Prediction{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

// SaveEvent archives an event. Redelivered events are ignored.
func (r *Repo) SaveEvent(ctx context.Context, e events.Event) error {
	if e.ID == "" || e.Type == "" {
		return errors.New("audit: event id and type required")
	}
	row := &Event{
		ID:         e.ID,
		Type:       e.Type,
		Payload:    string(e.Payload),
		OccurredAt: e.OccurredAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (r *Repo) CountEvents(ctx context.Context, typ string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Event{}).Where("type = ?", typ).Count(&n).Error
	return n, err
}
