package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"bim-viewer/internal/server/repository"
	"bim-viewer/internal/server/service"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

type testEnv struct {
	app     *fiber.App
	handler *IFCHandler
	repo    *repository.Repository
	storage *service.FileStorage
	table   *service.ModelTable
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := repository.OpenSQLite(filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db)
	require.NoError(t, repo.Init(context.Background()))

	storage := service.NewFileStorage(filepath.Join(dir, "ifc"))
	table := service.NewModelTable()
	handler := NewIFCHandler(repo, storage, table)

	app := fiber.New()
	app.Get("/", handler.Root)
	app.Post("/upload-ifc", handler.UploadIFC)
	app.Post("/get-element-by-guid", handler.GetElementByGUID)
	app.Delete("/remove-model/:model_id", handler.RemoveModel)
	app.Get("/models", handler.ListModels)

	return &testEnv{app: app, handler: handler, repo: repo, storage: storage, table: table}
}

func fixtureIFC(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../ifc/testdata/cube.ifc")
	require.NoError(t, err)
	return data
}

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-ifc", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out), "body: %s", body)
}

func uploadFixture(t *testing.T, env *testEnv) string {
	t.Helper()
	resp, err := env.app.Test(uploadRequest(t, "cube.ifc", fixtureIFC(t)))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		ModelID string `json:"model_id"`
	}
	decode(t, resp, &result)
	require.NotEmpty(t, result.ModelID)
	return result.ModelID
}

func TestUploadIFC(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(uploadRequest(t, "cube.ifc", fixtureIFC(t)))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		ModelID       string `json:"model_id"`
		Filename      string `json:"filename"`
		ProjectName   string `json:"project_name"`
		TotalElements int    `json:"total_elements"`
		Message       string `json:"message"`
	}
	decode(t, resp, &result)

	assert.NotEmpty(t, result.ModelID)
	assert.Equal(t, "cube.ifc", result.Filename)
	assert.Equal(t, "Sample Project", result.ProjectName)
	assert.Equal(t, 3, result.TotalElements)
	assert.Equal(t, "IFC file uploaded successfully", result.Message)

	// the raw bytes must be stored for catalog restore
	stored, err := env.storage.Read(result.ModelID)
	require.NoError(t, err)
	assert.Equal(t, fixtureIFC(t), stored)

	rec, err := env.repo.Get(context.Background(), result.ModelID)
	require.NoError(t, err)
	assert.Equal(t, "cube.ifc", rec.Filename)
	assert.Equal(t, 3, rec.TotalElements)
}

func TestUploadIFC_RejectsNonIFC(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(uploadRequest(t, "model.obj", []byte("v 0 0 0")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadIFC_RejectsMissingFile(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/upload-ifc", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadIFC_RejectsUnparsableFile(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(uploadRequest(t, "junk.ifc", []byte("not a step file")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	decode(t, resp, &body)
	assert.Contains(t, body.Error, "Error processing IFC")
}

func guidRequest(modelID, guid string) *http.Request {
	payload, _ := json.Marshal(map[string]string{"model_id": modelID, "guid": guid})
	req := httptest.NewRequest(http.MethodPost, "/get-element-by-guid", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestGetElementByGUID(t *testing.T) {
	env := newTestEnv(t)
	modelID := uploadFixture(t, env)

	resp, err := env.app.Test(guidRequest(modelID, "3vB2YO$MX4xv5uCqZZG05x"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var element struct {
		GUID       string                     `json:"guid"`
		Name       *string                    `json:"name"`
		Type       string                     `json:"type"`
		Properties map[string]any            `json:"properties"`
		Psets      map[string]map[string]any `json:"psets"`
	}
	decode(t, resp, &element)

	assert.Equal(t, "3vB2YO$MX4xv5uCqZZG05x", element.GUID)
	require.NotNil(t, element.Name)
	assert.Equal(t, "North Wall", *element.Name)
	assert.Equal(t, "IFCWALL", element.Type)
	assert.Equal(t, "W-01", element.Properties["Tag"])

	require.Contains(t, element.Psets, "Pset_WallCommon")
	assert.Equal(t, "REI120", element.Psets["Pset_WallCommon"]["FireRating"])
	assert.Equal(t, true, element.Psets["Pset_WallCommon"]["IsExternal"])

	// quantities ride along as one more pset, values as {value, unit}
	require.Contains(t, element.Psets, "Quantities")
	length, ok := element.Psets["Quantities"]["Length"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 5.0, length["value"])
	assert.Equal(t, "m", length["unit"])
}

func TestGetElementByGUID_NullNameSurvivesJSON(t *testing.T) {
	env := newTestEnv(t)
	modelID := uploadFixture(t, env)

	// the door carries no Name attribute
	resp, err := env.app.Test(guidRequest(modelID, "1kTvXnbbzCWw8lcMd1dR4o"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, "null", string(raw["name"]))
}

func TestGetElementByGUID_UnknownModel(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(guidRequest("nope", "3vB2YO$MX4xv5uCqZZG05x"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "Model not found", body.Error)
}

func TestGetElementByGUID_UnknownGUID(t *testing.T) {
	env := newTestEnv(t)
	modelID := uploadFixture(t, env)

	resp, err := env.app.Test(guidRequest(modelID, "0000000000000000000000"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	decode(t, resp, &body)
	assert.Contains(t, body.Error, "0000000000000000000000")
}

func TestGetElementByGUID_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid json", "{"},
		{"missing fields", `{"model_id":"m"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/get-element-by-guid", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			resp, err := env.app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRemoveModel(t *testing.T) {
	env := newTestEnv(t)
	modelID := uploadFixture(t, env)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodDelete, "/remove-model/"+modelID, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Message string `json:"message"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "Model removed successfully", body.Message)

	_, ok := env.table.Get(modelID)
	assert.False(t, ok)
	_, err = env.storage.Read(modelID)
	assert.Error(t, err)
	_, err = env.repo.Get(context.Background(), modelID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// removing twice is a 404
	resp, err = env.app.Test(httptest.NewRequest(http.MethodDelete, "/remove-model/"+modelID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListModels(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/models", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Models []struct {
			ModelID  string `json:"model_id"`
			Filename string `json:"filename"`
		} `json:"models"`
	}
	decode(t, resp, &body)
	assert.Empty(t, body.Models)

	modelID := uploadFixture(t, env)

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/models", nil))
	require.NoError(t, err)
	decode(t, resp, &body)
	require.Len(t, body.Models, 1)
	assert.Equal(t, modelID, body.Models[0].ModelID)
	assert.Equal(t, "cube.ifc", body.Models[0].Filename)
}

func TestRestore(t *testing.T) {
	env := newTestEnv(t)
	modelID := uploadFixture(t, env)

	// a fresh handler over the same catalog simulates a server restart
	table := service.NewModelTable()
	restarted := NewIFCHandler(env.repo, env.storage, table)
	require.NoError(t, restarted.Restore(context.Background()))

	loaded, ok := table.Get(modelID)
	require.True(t, ok)
	assert.Equal(t, "cube.ifc", loaded.Filename)
	assert.Equal(t, 3, loaded.Model.TotalElements())
}

func TestRestore_PrunesMissingFiles(t *testing.T) {
	env := newTestEnv(t)
	modelID := uploadFixture(t, env)
	require.NoError(t, os.Remove(env.storage.ModelPath(modelID)))

	table := service.NewModelTable()
	restarted := NewIFCHandler(env.repo, env.storage, table)
	require.NoError(t, restarted.Restore(context.Background()))

	assert.Empty(t, table.List())
	_, err := env.repo.Get(context.Background(), modelID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "orphaned catalog row is pruned")
}

func TestRoot(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Message string `json:"message"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "BIM IFC API Server", body.Message)
}
