package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/nsrz/intranet/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PhonebookService interface {
	Search(ctx context.Context, query string, departmentID *int64) ([]service.PhonebookEntry, error)
	Export(entries []service.PhonebookEntry) ([]byte, error)
}

type PhonebookHandler struct {
	phonebook PhonebookService
}

func NewPhonebookHandler(phonebook PhonebookService) *PhonebookHandler {
	return &PhonebookHandler{phonebook: phonebook}
}

func (h *PhonebookHandler) search(c *fiber.Ctx) ([]service.PhonebookEntry, error) {
	deptID, err := queryID(c, "department_id")
	if err != nil {
		return nil, err
	}
	return h.phonebook.Search(c.UserContext(), c.Query("q"), deptID)
}

// List handles GET /api/phonebook?q=&department_id=.
func (h *PhonebookHandler) List(c *fiber.Ctx) error {
	entries, err := h.search(c)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, entries)
}

// Export handles GET /api/phonebook/export with the same filters as List.
func (h *PhonebookHandler) Export(c *fiber.Ctx) error {
	entries, err := h.search(c)
	if err != nil {
		return err
	}
	book, err := h.phonebook.Export(entries)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Attachment("phonebook.xlsx")
	return c.Send(book)
}
