package domain

import "time"

// News is an intranet article.
type News struct {
	ID          int64
	Title       string
	Content     string
	Published   bool
	Image       *string
	AuthorID    *int64
	CreatedAt   time.Time
	PublishDate *time.Time
}
