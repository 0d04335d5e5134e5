// Package review holds user reviews of titles and the comments under them.
package review

import (
	"time"

	"go-yamdb/internal/catalog"
	"go-yamdb/internal/user"
)

const (
	MinScore = 1
	MaxScore = 10
)

// Review is one author's scored opinion of a title; an author reviews a title at most once.
type Review struct {
	ID       uint           `gorm:"primaryKey"`
	TitleID  uint           `gorm:"not null;uniqueIndex:idx_review_title_author"`
	Title    *catalog.Title `gorm:"constraint:OnDelete:CASCADE;"`
	AuthorID uint           `gorm:"not null;uniqueIndex:idx_review_title_author;index"`
	Author   user.User      `gorm:"constraint:OnDelete:CASCADE;"`
	Text     string         `gorm:"type:text;not null"`
	Score    int            `gorm:"not null"`
	PubDate  time.Time      `gorm:"autoCreateTime;index"`
}

type Comment struct {
	ID       uint      `gorm:"primaryKey"`
	ReviewID uint      `gorm:"not null;index"`
	Review   *Review   `gorm:"constraint:OnDelete:CASCADE;"`
	AuthorID uint      `gorm:"not null;index"`
	Author   user.User `gorm:"constraint:OnDelete:CASCADE;"`
	Text     string    `gorm:"type:text;not null"`
	PubDate  time.Time `gorm:"autoCreateTime;index"`
}
