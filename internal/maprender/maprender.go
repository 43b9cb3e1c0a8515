// Package maprender talks to the map-rendering collaborator that turns
// search results into a static image and an interactive map document.
package maprender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/taigabase/geobase/internal/errors"
)

// Feature is one geometry with its map annotations.
type Feature struct {
	Geometry  json.RawMessage `json:"geojson"`
	Tooltip   string          `json:"tooltip"`
	PopupHTML string          `json:"popup"`
}

// Artifacts are the rendered outputs. URLs are embedded verbatim inside
// cached search payloads, so artifacts and cache entries share a lifecycle.
type Artifacts struct {
	StaticImageURL string `json:"imageUrl"`
	InteractiveURL string `json:"mapUrl"`
}

// Renderer renders a set of annotated geometries under a deterministic name.
type Renderer interface {
	Render(ctx context.Context, features []Feature, name string) (Artifacts, error)
}

// Noop is the renderer used when map rendering is disabled. It returns
// empty artifacts without any I/O.
type Noop struct{}

func (Noop) Render(context.Context, []Feature, string) (Artifacts, error) {
	return Artifacts{}, nil
}

// HTTPRenderer calls the rendering service over HTTP.
type HTTPRenderer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRenderer creates a renderer against the given base URL with a
// per-call timeout.
func NewHTTPRenderer(baseURL string, timeout time.Duration) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type renderRequest struct {
	Name     string    `json:"name"`
	Features []Feature `json:"features"`
}

// Render posts the features to the rendering service. An empty name gets a
// random one so artifacts never overwrite each other by accident.
func (r *HTTPRenderer) Render(ctx context.Context, features []Feature, name string) (Artifacts, error) {
	usable := make([]Feature, 0, len(features))
	for _, f := range features {
		if len(f.Geometry) > 0 {
			usable = append(usable, f)
		}
	}
	if len(usable) == 0 {
		return Artifacts{}, errors.Newf("no geometries to render").
			Component("maprender").
			Category(errors.CategoryValidation).
			Build()
	}
	if name == "" {
		name = uuid.New().String()
	}

	body, err := json.Marshal(renderRequest{Name: name, Features: usable})
	if err != nil {
		return Artifacts{}, errors.New(err).
			Component("maprender").
			Category(errors.CategoryMapRender).
			Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return Artifacts{}, errors.New(err).
			Component("maprender").
			Category(errors.CategoryMapRender).
			Build()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Artifacts{}, errors.New(err).
			Component("maprender").
			Category(errors.CategoryNetwork).
			Context("url", r.baseURL).
			Build()
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return Artifacts{}, errors.New(fmt.Errorf("render service returned status %d", resp.StatusCode)).
			Component("maprender").
			Category(errors.CategoryMapRender).
			Context("status", resp.StatusCode).
			Build()
	}

	var artifacts Artifacts
	if err := json.NewDecoder(resp.Body).Decode(&artifacts); err != nil {
		return Artifacts{}, errors.New(err).
			Component("maprender").
			Category(errors.CategoryMapRender).
			Build()
	}
	return artifacts, nil
}
