package mail

import (
	"context"
	"time"

	"go-yamdb/internal/logging"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Dispatch is one delivery attempt. The body is never stored: it may carry a
// confirmation code.
type Dispatch struct {
	ID         uint                        `gorm:"primaryKey" json:"id"`
	Subject    string                      `gorm:"size:255;not null" json:"subject"`
	Recipients datatypes.JSONSlice[string] `json:"recipients"`
	Status     string                      `gorm:"type:varchar(16);not null;index" json:"status"`
	Error      string                      `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time                   `json:"createdAt"`
}

// Journal records every attempt made through the wrapped sender.
type Journal struct {
	next Sender
	db   *gorm.DB
	log  logging.Logger
}

func NewJournal(next Sender, db *gorm.DB, log logging.Logger) *Journal {
	return &Journal{next: next, db: db, log: log}
}

func (j *Journal) Send(ctx context.Context, msg Message) error {
	err := j.next.Send(ctx, msg)
	d := Dispatch{
		Subject:    msg.Subject,
		Recipients: datatypes.JSONSlice[string](msg.To),
		Status:     StatusSent,
	}
	if err != nil {
		d.Status = StatusFailed
		d.Error = err.Error()
	}
	if dbErr := j.db.WithContext(ctx).Create(&d).Error; dbErr != nil {
		j.log.Warn(ctx, "mail journal write failed", "error", dbErr)
	}
	return err
}
