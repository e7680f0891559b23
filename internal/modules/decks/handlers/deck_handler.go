package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/progress"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/storage"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/models"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/repositories"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/services"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type DeckHandler struct {
	deckService *services.DeckService
}

func NewDeckHandler(deckService *services.DeckService) *DeckHandler {
	return &DeckHandler{deckService: deckService}
}

// Register mounts the deck routes on a fiber router
func (h *DeckHandler) Register(r fiber.Router) {
	r.Post("/datasets", h.CreateDataset)

	r.Post("/generations", h.CreateGeneration)
	r.Get("/generations/:id", h.GetGeneration)
	r.Get("/generations/:id/progress", h.GetProgress)
	r.Get("/generations/:id/stream", h.StreamProgress)
	r.Get("/generations/:id/calls", h.GetCalls)

	r.Get("/decks/:id", h.GetDeck)
	r.Get("/decks/:id/export", h.ExportDeck)
	r.Post("/decks/:id/exports", h.PublishExport)
	r.Get("/decks/:id/qr", h.GetDeckQR)
}

// errorStatus maps service errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, storage.ErrInvalidKey):
		return fiber.StatusBadRequest
	case errors.Is(err, repositories.ErrGenerationNotFound),
		errors.Is(err, services.ErrDeckNotFound),
		errors.Is(err, analysis.ErrDatasetNotFound),
		errors.Is(err, progress.ErrNoProgress):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrArtifactsDisabled):
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("❌ Request failed")
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// CreateDataset godoc
// @Summary Upload a dataset
// @Description Store tabular data as JSON rows, or as a multipart csv/xlsx file in field "file"
// @Tags Datasets
// @Accept json,mpfd
// @Produce json
// @Param dataset body models.CreateDatasetRequest false "Dataset rows"
// @Param file formData file false "CSV or XLSX file"
// @Success 201 {object} models.Dataset
// @Failure 400 {object} map[string]interface{}
// @Router /datasets [post]
func (h *DeckHandler) CreateDataset(c *fiber.Ctx) error {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to read uploaded file",
			})
		}
		defer f.Close()

		dataset, err := h.deckService.ImportDataset(c.UserContext(), fh.Filename, f)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(dataset)
	}

	var req models.CreateDatasetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	dataset, err := h.deckService.CreateDataset(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dataset)
}

// CreateGeneration godoc
// @Summary Start a deck generation
// @Description Create a pending generation and queue it for the background workers
// @Tags Generations
// @Accept json
// @Produce json
// @Param generation body models.CreateGenerationRequest true "Generation request"
// @Success 202 {object} models.CreateGenerationResponse
// @Failure 400 {object} map[string]interface{}
// @Router /generations [post]
func (h *DeckHandler) CreateGeneration(c *fiber.Ctx) error {
	var req models.CreateGenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.deckService.CreateGeneration(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// GetGeneration godoc
// @Summary Get generation status
// @Tags Generations
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} models.Generation
// @Failure 404 {object} map[string]interface{}
// @Router /generations/{id} [get]
func (h *DeckHandler) GetGeneration(c *fiber.Ctx) error {
	g, err := h.deckService.GetGeneration(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(g)
}

// GetProgress godoc
// @Summary Latest progress record
// @Description Polling fallback for clients that cannot hold a stream open
// @Tags Generations
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} progress.Record
// @Failure 404 {object} map[string]interface{}
// @Router /generations/{id}/progress [get]
func (h *DeckHandler) GetProgress(c *fiber.Ctx) error {
	rec, err := h.deckService.LatestProgress(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rec)
}

// StreamProgress godoc
// @Summary Stream progress events
// @Description Server-sent events: connected, the latest record, then live records until done, error or timeout
// @Tags Generations
// @Produce text/event-stream
// @Param id path string true "Generation ID"
// @Success 200 {string} string "event stream"
// @Router /generations/{id}/stream [get]
func (h *DeckHandler) StreamProgress(c *fiber.Ctx) error {
	jobID := c.Params("id")
	tracker := h.deckService.Tracker()
	timeout := progress.DefaultStreamTimeout

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")
	c.Status(fiber.StatusOK)

	// the fiber context is recycled once the handler returns; only captured values are used below
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		err := progress.Stream(context.Background(), tracker, jobID, timeout, func(e progress.Event) error {
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return err
			}
			return w.Flush()
		})
		if err != nil {
			log.Debug().Err(err).Str("job_id", jobID).Msg("Progress stream closed")
		}
	}))
	return nil
}

// GetCalls godoc
// @Summary Generation call audit
// @Description Structured-generation calls made for a generation with token and cost totals
// @Tags Generations
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} map[string]interface{}
// @Router /generations/{id}/calls [get]
func (h *DeckHandler) GetCalls(c *fiber.Ctx) error {
	calls, summary, err := h.deckService.Calls(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"calls":   calls,
		"summary": summary,
	})
}

// GetDeck godoc
// @Summary Get a generated deck
// @Description Returns the persisted deck, or a demo deck from the cache
// @Tags Decks
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} deck.FinalDeck
// @Failure 404 {object} map[string]interface{}
// @Router /decks/{id} [get]
func (h *DeckHandler) GetDeck(c *fiber.Ctx) error {
	d, err := h.deckService.GetDeck(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(d)
}

// ExportDeck godoc
// @Summary Export a deck
// @Description Download the outline workbook (xlsx) or the speaker handout (pdf)
// @Tags Decks
// @Produce application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Generation ID"
// @Param format query string false "xlsx or pdf" default(pdf)
// @Success 200 {file} file
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /decks/{id}/export [get]
func (h *DeckHandler) ExportDeck(c *fiber.Ctx) error {
	format, ok := export.ParseFormat(c.Query("format", "pdf"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "format must be xlsx or pdf",
		})
	}

	data, contentType, filename, err := h.deckService.Export(c.UserContext(), c.Params("id"), format)
	if err != nil {
		return fail(c, err)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}

// PublishExport godoc
// @Summary Store a deck export
// @Description Render the deck and keep the file in artifact storage (local, S3 or Cloudinary)
// @Tags Decks
// @Produce json
// @Param id path string true "Generation ID"
// @Param format query string false "xlsx or pdf" default(pdf)
// @Success 201 {object} storage.Object
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 501 {object} map[string]interface{}
// @Router /decks/{id}/exports [post]
func (h *DeckHandler) PublishExport(c *fiber.Ctx) error {
	format, ok := export.ParseFormat(c.Query("format", "pdf"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "format must be xlsx or pdf",
		})
	}

	obj, err := h.deckService.PublishExport(c.UserContext(), c.Params("id"), format)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(obj)
}

// GetDeckQR godoc
// @Summary Deck share QR code
// @Tags Decks
// @Produce png
// @Param id path string true "Generation ID"
// @Param size query int false "Image size in pixels" default(256)
// @Success 200 {file} file
// @Failure 404 {object} map[string]interface{}
// @Router /decks/{id}/qr [get]
func (h *DeckHandler) GetDeckQR(c *fiber.Ctx) error {
	png, err := h.deckService.QRCode(c.UserContext(), c.Params("id"), c.QueryInt("size", 256))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}
