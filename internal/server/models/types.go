package models

// ============================================================
// Wire types
// ============================================================

// UploadResponse is returned by POST /upload-ifc.
type UploadResponse struct {
	ModelID       string `json:"model_id"`
	Filename      string `json:"filename"`
	ProjectName   string `json:"project_name"`
	TotalElements int    `json:"total_elements"`
	Message       string `json:"message"`
}

// GUIDRequest is the body of POST /get-element-by-guid.
type GUIDRequest struct {
	ModelID string `json:"model_id"`
	GUID    string `json:"guid"`
}

// ElementResponse describes one building element. Name is nullable;
// psets flatten property sets to setName -> key -> value, with base
// quantities merged under "Quantities".
type ElementResponse struct {
	GUID       string                    `json:"guid"`
	Name       *string                   `json:"name"`
	Type       string                    `json:"type"`
	Properties map[string]any            `json:"properties"`
	Psets      map[string]map[string]any `json:"psets"`
}

// ModelInfo is one entry of GET /models.
type ModelInfo struct {
	ModelID  string `json:"model_id"`
	Filename string `json:"filename"`
}

// ModelRecord is a catalog row persisted in sqlite so stored models can be
// reopened after a restart.
type ModelRecord struct {
	ID            string
	Filename      string
	ProjectName   string
	TotalElements int
	FilePath      string
	CreatedAt     string
}
