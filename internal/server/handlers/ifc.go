package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"bim-viewer/internal/ifc"
	"bim-viewer/internal/server/models"
	"bim-viewer/internal/server/repository"
	"bim-viewer/internal/server/service"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ============================================================
// IFC Handler
// ============================================================

type IFCHandler struct {
	repo    *repository.Repository
	storage *service.FileStorage
	table   *service.ModelTable
}

func NewIFCHandler(repo *repository.Repository, storage *service.FileStorage, table *service.ModelTable) *IFCHandler {
	return &IFCHandler{
		repo:    repo,
		storage: storage,
		table:   table,
	}
}

// Restore reopens catalog models whose stored files survive on disk and
// prunes rows whose files are gone.
func (h *IFCHandler) Restore(ctx context.Context) error {
	records, err := h.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		data, err := h.storage.Read(rec.ID)
		if err != nil {
			log.Printf("[SERVER] dropping catalog row %s: %v", rec.ID, err)
			if err := h.repo.Delete(ctx, rec.ID); err != nil {
				log.Printf("[SERVER] prune catalog row %s: %v", rec.ID, err)
			}
			continue
		}
		model, err := ifc.Parse(data)
		if err != nil {
			log.Printf("[SERVER] reparse %s (%s): %v", rec.ID, rec.Filename, err)
			continue
		}
		h.table.Put(&service.LoadedModel{ID: rec.ID, Filename: rec.Filename, Model: model})
	}
	log.Printf("[SERVER] restored %d model(s) from catalog", len(h.table.List()))
	return nil
}

// UploadIFC stores and parses an uploaded IFC file and returns its model id.
func (h *IFCHandler) UploadIFC(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "file required in multipart/form-data"})
	}
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".ifc" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "only ifc allowed"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}

	model, err := ifc.Parse(data)
	if err != nil {
		log.Printf("[SERVER] parse %s: %v", fileHeader.Filename, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Error processing IFC: " + err.Error()})
	}

	modelID := uuid.NewString()

	path, err := h.storage.Save(modelID, data)
	if err != nil {
		log.Printf("[SERVER] store %s: %v", fileHeader.Filename, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store file"})
	}

	rec := models.ModelRecord{
		ID:            modelID,
		Filename:      fileHeader.Filename,
		ProjectName:   model.ProjectName(),
		TotalElements: model.TotalElements(),
		FilePath:      path,
	}
	if err := h.repo.Insert(context.Background(), rec); err != nil {
		log.Printf("[SERVER] catalog insert %s: %v", modelID, err)
		if rmErr := h.storage.Remove(modelID); rmErr != nil {
			log.Printf("[SERVER] cleanup %s: %v", modelID, rmErr)
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record model"})
	}

	h.table.Put(&service.LoadedModel{ID: modelID, Filename: fileHeader.Filename, Model: model})
	log.Printf("[SERVER] loaded %s as %s (%d elements)", fileHeader.Filename, modelID, model.TotalElements())

	return c.JSON(models.UploadResponse{
		ModelID:       modelID,
		Filename:      fileHeader.Filename,
		ProjectName:   model.ProjectName(),
		TotalElements: model.TotalElements(),
		Message:       "IFC file uploaded successfully",
	})
}

// GetElementByGUID returns the properties of one element of a loaded model.
func (h *IFCHandler) GetElementByGUID(c fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	var req models.GUIDRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.ModelID == "" || req.GUID == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "model_id and guid required"})
	}

	loaded, ok := h.table.Get(req.ModelID)
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Model not found"})
	}

	element, ok := loaded.Model.ByGUID(req.GUID)
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Element with GUID " + req.GUID + " not found"})
	}

	psets := loaded.Model.PropertySets(element)
	if quantities := loaded.Model.Quantities(element); len(quantities) > 0 {
		merged := make(map[string]any, len(quantities))
		for name, q := range quantities {
			merged[name] = q
		}
		psets["Quantities"] = merged
	}

	return c.JSON(models.ElementResponse{
		GUID:       element.GlobalID(),
		Name:       loaded.Model.Name(element),
		Type:       element.Type,
		Properties: loaded.Model.Properties(element),
		Psets:      psets,
	})
}

// RemoveModel drops a model from memory, storage, and the catalog.
func (h *IFCHandler) RemoveModel(c fiber.Ctx) error {
	modelID := c.Params("model_id")
	if modelID == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "model_id required"})
	}

	if !h.table.Delete(modelID) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Model not found"})
	}

	if err := h.storage.Remove(modelID); err != nil {
		log.Printf("[SERVER] remove stored file %s: %v", modelID, err)
	}
	if err := h.repo.Delete(context.Background(), modelID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("[SERVER] remove catalog row %s: %v", modelID, err)
	}

	return c.JSON(fiber.Map{"message": "Model removed successfully"})
}

// ListModels lists the loaded models.
func (h *IFCHandler) ListModels(c fiber.Ctx) error {
	loaded := h.table.List()
	infos := make([]models.ModelInfo, 0, len(loaded))
	for _, m := range loaded {
		infos = append(infos, models.ModelInfo{ModelID: m.ID, Filename: m.Filename})
	}
	return c.JSON(fiber.Map{"models": infos})
}

// Root returns the service banner with the endpoint map.
func (h *IFCHandler) Root(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "BIM IFC API Server",
		"endpoints": fiber.Map{
			"POST /upload-ifc":               "Upload IFC file",
			"POST /get-element-by-guid":      "Get element details by GUID",
			"DELETE /remove-model/:model_id": "Remove model",
			"GET /models":                    "List loaded models",
		},
	})
}
