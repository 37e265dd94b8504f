package api

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"ingexai/app/middleware"
	"ingexai/service"
	"ingexai/store"
	"ingexai/types"
)

type DocumentHandler struct {
	docStore store.DBStorer
	svc      *service.DocumentService
}

func NewDocumentHandler(docStore store.DBStorer, svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		docStore: docStore,
		svc:      svc,
	}
}

func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return ErrUnAuthorized("missing user")
	}

	docs, err := h.docStore.GetDocumentsByOwner(c.Context(), user.ID)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []types.Document{}
	}
	return c.JSON(docs)
}

func (h *DocumentHandler) HandleGet(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return ErrUnAuthorized("missing user")
	}
	docID, err := parseID(c)
	if err != nil {
		return err
	}

	doc, err := h.docStore.GetDocumentByID(c.Context(), docID, user.ID)
	if err != nil {
		return err
	}
	chunks, err := h.docStore.GetChunksByDocID(c.Context(), docID)
	if err != nil {
		return err
	}
	if chunks == nil {
		chunks = []types.Chunk{}
	}
	return c.JSON(types.DocumentDetail{
		Document: *doc,
		Chunks:   chunks,
	})
}

func (h *DocumentHandler) HandleGetChunks(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return ErrUnAuthorized("missing user")
	}
	docID, err := parseID(c)
	if err != nil {
		return err
	}

	// Ownership gate before exposing chunk rows.
	if _, err := h.docStore.GetDocumentByID(c.Context(), docID, user.ID); err != nil {
		return err
	}
	chunks, err := h.docStore.GetChunksByDocID(c.Context(), docID)
	if err != nil {
		return err
	}
	if chunks == nil {
		chunks = []types.Chunk{}
	}
	return c.JSON(chunks)
}

func (h *DocumentHandler) HandleUpdate(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return ErrUnAuthorized("missing user")
	}
	docID, err := parseID(c)
	if err != nil {
		return err
	}

	var params types.UpdateDocumentParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	if _, err := h.docStore.GetDocumentByID(c.Context(), docID, user.ID); err != nil {
		return err
	}
	if err := h.docStore.RenameDocument(c.Context(), docID, params.Name); err != nil {
		return err
	}

	doc, err := h.docStore.GetDocumentByID(c.Context(), docID, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return ErrUnAuthorized("missing user")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	contentType := fileHeader.Header.Get(fiber.HeaderContentType)
	result, err := h.svc.Ingest(c.Context(), user, fileHeader.Filename, contentType, data)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *DocumentHandler) HandleDelete(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return ErrUnAuthorized("missing user")
	}
	docID, err := parseID(c)
	if err != nil {
		return err
	}

	extResult, err := h.svc.DeleteDocument(c.Context(), user, docID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"external_status": extResult.Status,
		"external_id":     extResult.ExternalID,
	})
}

func (h *DocumentHandler) HandleSearch(c *fiber.Ctx) error {
	if _, ok := middleware.CurrentUser(c); !ok {
		return ErrUnAuthorized("missing user")
	}

	var params types.SearchParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	chunks, err := h.svc.SearchChunks(c.Context(), params.Query, params.TopKOrDefault(service.DefaultTopK))
	if err != nil {
		return err
	}
	if chunks == nil {
		chunks = []types.Chunk{}
	}
	return c.JSON(chunks)
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, ErrInvalidID()
	}
	return id, nil
}
