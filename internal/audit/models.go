package audit

import "time"

// Prediction is one row of the local classifier's prediction log.
type Prediction struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	Intent     string    `gorm:"type:varchar(32);index;not null" json:"intent"`
	Confidence float64   `gorm:"not null" json:"confidence"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (Prediction) TableName() string { return "intent_predictions" }

// Event is an archived domain event consumed from the broker.
type Event struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Type       string    `gorm:"type:varchar(64);index;not null" json:"type"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`
	OccurredAt time.Time `gorm:"index" json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Event) TableName() string { return "domain_events" }
