package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Book struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title         string    `json:"title" gorm:"not null"`
	Author        string    `json:"author" gorm:"not null"`
	PublishedYear int       `json:"publishedYear" gorm:"not null"`
	ISBN          string    `json:"ISBN" gorm:"column:isbn;not null;uniqueIndex:idx_books_isbn"`
	Genre         string    `json:"genre" gorm:"not null"`
	StockCount    int       `json:"stockCount" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
