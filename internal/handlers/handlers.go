package handlers

import (
	"errors"

	"pushgate/internal/runs"

	"github.com/gofiber/fiber/v2"
)

type HTTP struct {
	service runs.Service
}

func NewHTTP(s runs.Service) *HTTP {
	return &HTTP{
		service: s,
	}
}

// PostEvent ingests a push payload. Filtered refs (non-version tags, exotic
// refs) get a 204: the event was understood but triggers nothing.
func (h *HTTP) PostEvent(c *fiber.Ctx) error {
	run, err := h.service.Ingest(c.Body())

	var verr *runs.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(400).JSON(fiber.Map{
			"error":    "invalid payload",
			"problems": verr.Problems,
		})
	case errors.Is(err, runs.ErrFiltered):
		return c.SendStatus(204)
	case err != nil:
		return c.Status(500).JSON(fiber.Map{"error": "failed to create run"})
	}

	return c.Status(202).JSON(run)
}

func (h *HTTP) GetRunById(c *fiber.Ctx) error {
	id := c.Params("id")

	run, err := h.service.GetByID(id)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "run not found",
		})
	}

	return c.JSON(run)
}

func (h *HTTP) GetRuns(c *fiber.Ctx) error {
	data, err := h.service.GetAll()
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "runs not found"})
	}
	c.Set("Content-Type", "application/json")
	return c.Send(data)
}
