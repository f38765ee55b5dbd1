package server

import (
	"bytes"
	"context"
	"io"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/chazu/lintel/pkg/app"
	"github.com/chazu/lintel/pkg/extract"
	"github.com/chazu/lintel/pkg/ifc"
)

type handler struct {
	app     *app.App
	timeout time.Duration
}

// MeshesResponse is the body of a successful POST /meshes.
type MeshesResponse struct {
	Meshes   []app.MeshData    `json:"meshes"`
	Warnings []string          `json:"warnings"`
	Summary  []extract.Summary `json:"summary"`
}

func (h *handler) meshes(c fiber.Ctx) error {
	data, name, err := upload(c)
	if err != nil {
		log.Printf("[LINTEL] upload error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read upload",
		})
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "IFC file required as multipart \"file\" or request body",
		})
	}
	log.Printf("[LINTEL] received %s, %d bytes", name, len(data))

	m, err := ifc.Parse(bytes.NewReader(data))
	if err != nil {
		log.Printf("[LINTEL] parse error: %v", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ctx := context.Background()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	res, err := h.app.Process(ctx, m)
	if err != nil {
		log.Printf("[LINTEL] processing error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	resp := MeshesResponse{
		Meshes:   h.app.Meshes(res.Records),
		Warnings: res.Warnings,
		Summary:  res.Summary,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	log.Printf("[LINTEL] %s: %d meshes, %d warnings", name, len(resp.Meshes), len(resp.Warnings))
	return c.JSON(resp)
}

// upload returns the multipart "file" part when the request has one, the
// raw body otherwise.
func upload(c fiber.Ctx) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Body(), "request body", nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fh.Filename, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	return data, fh.Filename, err
}
