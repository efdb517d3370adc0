package handlers

import (
	"context"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/api/dto"
	"github.com/nsrz/intranet/internal/auth"
	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/service"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

type NewsService interface {
	Create(ctx context.Context, authorID int64, input service.NewsCreateInput) (*domain.News, error)
	Get(ctx context.Context, id int64) (*domain.News, error)
	List(ctx context.Context, publishedOnly bool, limit int) ([]domain.News, error)
	Update(ctx context.Context, id int64, input service.NewsUpdateInput) (*domain.News, error)
	Publish(ctx context.Context, id int64, published bool) (*domain.News, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// ImageSaver stores an uploaded picture and returns its public URL. Remove
// deletes a picture previously returned by Save.
type ImageSaver interface {
	Save(r io.Reader) (string, error)
	Remove(url string) error
}

type NewsHandler struct {
	news   NewsService
	images ImageSaver
	logger *zap.Logger
}

func NewNewsHandler(news NewsService, images ImageSaver, logger *zap.Logger) *NewsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsHandler{news: news, images: images, logger: logger}
}

// discardImage drops a picture no article references any more. The article
// change has already been stored, so a failure is only logged.
func (h *NewsHandler) discardImage(url string) {
	if err := h.images.Remove(url); err != nil {
		h.logger.Warn("remove news image", zap.String("image", url), zap.Error(err))
	}
}

func imageChanged(before, after *domain.News) bool {
	if before == nil || before.Image == nil || *before.Image == "" {
		return false
	}
	return after == nil || after.Image == nil || *after.Image != *before.Image
}

// privileged reports whether the caller may see drafts.
func privileged(c *fiber.Ctx) bool {
	p, ok := auth.PrincipalFromContext(c)
	return ok && p.Role().Privileged()
}

// List handles GET /api/news. Drafts are included only for admin and hr asking with ?all=true.
func (h *NewsHandler) List(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return apperrors.NewValidationError("invalid query parameter", map[string]any{"limit": raw})
		}
		limit = n
	}
	publishedOnly := !(c.QueryBool("all", false) && privileged(c))
	items, err := h.news.List(c.UserContext(), publishedOnly, limit)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, dto.NewNewsResponses(items))
}

// Get handles GET /api/news/:id. Drafts look absent to ordinary users.
func (h *NewsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	n, err := h.news.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if n == nil || (!n.Published && !privileged(c)) {
		return notFound("news", id)
	}
	return respond(c, fiber.StatusOK, dto.NewNewsResponse(n))
}

func (h *NewsHandler) Create(c *fiber.Ctx) error {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.NewsCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	n, err := h.news.Create(c.UserContext(), p.User.ID, req.Input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, dto.NewNewsResponse(n))
}

func (h *NewsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.NewsUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	before, err := h.news.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if before == nil {
		return notFound("news", id)
	}
	n, err := h.news.Update(c.UserContext(), id, req.Input())
	if err != nil {
		return err
	}
	if n == nil {
		return notFound("news", id)
	}
	if imageChanged(before, n) {
		h.discardImage(*before.Image)
	}
	return respond(c, fiber.StatusOK, dto.NewNewsResponse(n))
}

// Publish handles PATCH /api/news/:id/publish.
func (h *NewsHandler) Publish(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.NewsPublishRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	n, err := h.news.Publish(c.UserContext(), id, *req.Published)
	if err != nil {
		return err
	}
	if n == nil {
		return notFound("news", id)
	}
	return respond(c, fiber.StatusOK, dto.NewNewsResponse(n))
}

func (h *NewsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	before, err := h.news.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	ok, err := h.news.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("news", id)
	}
	if imageChanged(before, nil) {
		h.discardImage(*before.Image)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadImage handles POST /api/news/images with a multipart "image" field.
func (h *NewsHandler) UploadImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return apperrors.NewValidationError("image file required", map[string]any{"image": "required"})
	}
	f, err := fh.Open()
	if err != nil {
		return apperrors.NewValidationError("could not read upload", nil)
	}
	defer f.Close()

	url, err := h.images.Save(f)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, dto.ImageUploadResponse{URL: url})
}
