// Package catalog holds categories, genres and titles.
package catalog

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"size:256;not null" json:"name"`
	Slug string `gorm:"uniqueIndex;size:50;not null" json:"slug"`
}

type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"size:256;not null" json:"name"`
	Slug string `gorm:"uniqueIndex;size:50;not null" json:"slug"`
}

type Title struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:256;not null;index"`
	Year        int       `gorm:"not null;index"`
	Description string    `gorm:"type:text"`
	CategoryID  *uint     `gorm:"index"`
	Category    *Category `gorm:"constraint:OnDelete:SET NULL;"`
	Genres      []Genre   `gorm:"many2many:title_genres;"`

	// Rating is the average review score, filled by queries that select it.
	Rating *float64 `gorm:"->;-:migration"`
}
