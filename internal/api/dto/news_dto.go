package dto

import (
	"time"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/service"
)

type NewsCreateRequest struct {
	Title     string  `json:"title" validate:"required,max=255"`
	Content   string  `json:"content" validate:"required"`
	Image     *string `json:"image" validate:"omitempty,max=512"`
	Published bool    `json:"published"`
}

func (r NewsCreateRequest) Input() service.NewsCreateInput {
	return service.NewsCreateInput{
		Title:     r.Title,
		Content:   r.Content,
		Image:     r.Image,
		Published: r.Published,
	}
}

type NewsUpdateRequest struct {
	Title   *string `json:"title" validate:"omitempty,max=255"`
	Content *string `json:"content"`
	Image   *string `json:"image" validate:"omitempty,max=512"`
}

func (r NewsUpdateRequest) Input() service.NewsUpdateInput {
	return service.NewsUpdateInput{Title: r.Title, Content: r.Content, Image: r.Image}
}

// NewsPublishRequest payload for PATCH /news/:id/publish.
type NewsPublishRequest struct {
	Published *bool `json:"published" validate:"required"`
}

type NewsResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Published   bool       `json:"published"`
	Image       *string    `json:"image"`
	AuthorID    *int64     `json:"author_id"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishDate *time.Time `json:"publish_date"`
}

func NewNewsResponse(n *domain.News) NewsResponse {
	return NewsResponse{
		ID:          n.ID,
		Title:       n.Title,
		Content:     n.Content,
		Published:   n.Published,
		Image:       n.Image,
		AuthorID:    n.AuthorID,
		CreatedAt:   n.CreatedAt,
		PublishDate: n.PublishDate,
	}
}

func NewNewsResponses(items []domain.News) []NewsResponse {
	out := make([]NewsResponse, 0, len(items))
	for i := range items {
		out = append(out, NewNewsResponse(&items[i]))
	}
	return out
}

// ImageUploadResponse points at the stored picture.
type ImageUploadResponse struct {
	URL string `json:"url"`
}
