package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// HTTPSource reads items from a REST catalog exposing
// GET {base}/api/files and GET {base}/api/files/{id}.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource returns a Source for the catalog at baseURL. A nil client means
// http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

type listResponse struct {
	Files []Item `json:"files"`
}

func (h *HTTPSource) List(ctx context.Context) ([]Item, error) {
	var resp listResponse
	if err := h.get(ctx, "/api/files", &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

func (h *HTTPSource) Detail(ctx context.Context, id string) (Detail, error) {
	var d Detail
	if err := h.get(ctx, "/api/files/"+url.PathEscape(id), &d); err != nil {
		return Detail{}, err
	}
	if d.Item.ID == "" {
		d.Item.ID = id
	}
	return d, nil
}

func (h *HTTPSource) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := h.Client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, res.Body)
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return fmt.Errorf("get %s: unexpected status %s", path, res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
