package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/events"
	"github.com/nsrz/intranet/internal/repository"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

const maxNewsLimit = 100

// NewsService manages intranet articles.
type NewsService struct {
	news       repository.NewsRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

type NewsDependencies struct {
	NewsRepo   repository.NewsRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

type NewsCreateInput struct {
	Title     string
	Content   string
	Image     *string
	Published bool
}

// NewsUpdateInput is a partial update; an empty Image removes the picture.
type NewsUpdateInput struct {
	Title   *string
	Content *string
	Image   *string
}

func NewNewsService(deps NewsDependencies) *NewsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsService{news: deps.NewsRepo, dispatcher: deps.Dispatcher, logger: logger}
}

// Create stores an article written by authorID.
func (s *NewsService) Create(ctx context.Context, authorID int64, input NewsCreateInput) (*domain.News, error) {
	input.Title = strings.TrimSpace(input.Title)
	errs := fieldErrors{}
	errs.require("title", input.Title)
	errs.require("content", input.Content)
	if len(errs) > 0 {
		return nil, apperrors.NewValidationError("invalid news", errs)
	}

	n := &domain.News{
		Title:     input.Title,
		Content:   input.Content,
		Image:     optional(input.Image),
		Published: input.Published,
	}
	if authorID > 0 {
		n.AuthorID = &authorID
	}
	if err := s.news.Create(ctx, n); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("news created", zap.Int64("news_id", n.ID), zap.Bool("published", n.Published))
	if n.Published {
		s.announce(ctx, n)
	}
	return n, nil
}

// Get returns nil without error when the article does not exist.
func (s *NewsService) Get(ctx context.Context, id int64) (*domain.News, error) {
	n, err := s.news.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return n, nil
}

// List returns articles newest first. limit is clamped to [0, 100]; 0 means everything.
func (s *NewsService) List(ctx context.Context, publishedOnly bool, limit int) ([]domain.News, error) {
	if limit < 0 {
		limit = 0
	}
	if limit > maxNewsLimit {
		limit = maxNewsLimit
	}
	items, err := s.news.List(ctx, publishedOnly, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// Update merges the given fields; nil means no such article.
func (s *NewsService) Update(ctx context.Context, id int64, input NewsUpdateInput) (*domain.News, error) {
	input.Title = trimPtr(input.Title)
	errs := fieldErrors{}
	errs.requireIfSet("title", input.Title)
	errs.requireIfSet("content", input.Content)
	if len(errs) > 0 {
		return nil, apperrors.NewValidationError("invalid news", errs)
	}

	n, err := s.Get(ctx, id)
	if err != nil || n == nil {
		return nil, err
	}
	if input.Title != nil {
		n.Title = *input.Title
	}
	if input.Content != nil {
		n.Content = *input.Content
	}
	if input.Image != nil {
		n.Image = optional(input.Image)
	}
	if err := s.news.Update(ctx, n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return n, nil
}

// Publish toggles visibility; nil means no such article.
func (s *NewsService) Publish(ctx context.Context, id int64, published bool) (*domain.News, error) {
	n, err := s.news.SetPublished(ctx, id, published)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("news visibility changed", zap.Int64("news_id", id), zap.Bool("published", published))
	if published {
		s.announce(ctx, n)
	}
	return n, nil
}

func (s *NewsService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.news.Delete(ctx, id)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return ok, nil
}

func (s *NewsService) announce(ctx context.Context, n *domain.News) {
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventNewsPublished, n.ID, n.AuthorID,
		events.NewsPublishedPayload{Title: n.Title}))
}
