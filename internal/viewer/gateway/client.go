// Package gateway is the viewer's REST client for the IFC backend. It is
// deliberately cache-free; every call goes to the wire. Payloads are
// validated at this boundary so the rest of the viewer works with typed
// envelopes instead of open-ended JSON bags.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidPayload marks a 2xx response whose body fails schema validation.
var ErrInvalidPayload = errors.New("invalid backend payload")

type Client struct {
	base string
	http *http.Client
}

// New creates a client for the given base URL (fixed host:port).
func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// UploadResult is the backend's answer to an IFC upload.
type UploadResult struct {
	ModelID       string `json:"model_id"`
	Filename      string `json:"filename"`
	ProjectName   string `json:"project_name"`
	TotalElements int    `json:"total_elements"`
}

// Element is the typed envelope for one element lookup.
type Element struct {
	GUID       string                    `json:"guid"`
	Name       *string                   `json:"name"`
	Type       string                    `json:"type"`
	Properties map[string]any            `json:"properties"`
	Psets      map[string]map[string]any `json:"psets"`
}

// ModelInfo is one entry of the backend's model list.
type ModelInfo struct {
	ModelID  string `json:"model_id"`
	Filename string `json:"filename"`
}

// UploadIFC sends the file as multipart form data and returns the
// backend-assigned model id and metadata.
func (c *Client) UploadIFC(ctx context.Context, filename string, data []byte) (UploadResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return UploadResult{}, fmt.Errorf("build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/upload-ifc", body)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result UploadResult
	if err := c.do(req, &result); err != nil {
		return UploadResult{}, err
	}
	if result.ModelID == "" {
		return UploadResult{}, fmt.Errorf("%w: upload response missing model_id", ErrInvalidPayload)
	}
	return result, nil
}

// ElementByGUID looks one element up by its stable GUID.
func (c *Client) ElementByGUID(ctx context.Context, modelID, guid string) (Element, error) {
	payload, err := json.Marshal(map[string]string{"model_id": modelID, "guid": guid})
	if err != nil {
		return Element{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/get-element-by-guid", bytes.NewReader(payload))
	if err != nil {
		return Element{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var element Element
	if err := c.do(req, &element); err != nil {
		return Element{}, err
	}
	if element.GUID == "" || element.Type == "" {
		return Element{}, fmt.Errorf("%w: element response missing guid or type", ErrInvalidPayload)
	}
	return element, nil
}

// RemoveModel deletes the backend-side record of a model.
func (c *Client) RemoveModel(ctx context.Context, modelID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.base+"/remove-model/"+modelID, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Models lists the models the backend currently holds.
func (c *Client) Models(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/models", nil)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Models []ModelInfo `json:"models"`
	}
	if err := c.do(req, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Models, nil
}

// do executes the request, maps non-2xx statuses to errors carrying the
// status text (and the backend's error message when one is present), and
// decodes the body into out when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var detail struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &detail) == nil && detail.Error != "" {
			return fmt.Errorf("backend: %s: %s", resp.Status, detail.Error)
		}
		return fmt.Errorf("backend: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
