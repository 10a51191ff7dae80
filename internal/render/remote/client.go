// Package remote talks to an external render service over HTTP. Changes are
// buffered client side and sent with the export request, so one session maps
// to one render call on the service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"campaign-backend/internal/render"
)

const maxResponseBytes = 50 << 20

// Engine is a render.Engine backed by a render service at baseURL.
type Engine struct {
	baseURL    string
	httpClient *http.Client
}

// New builds an engine. timeout bounds each HTTP call; the session-level
// timeout is applied by the caller.
func New(baseURL string, timeout time.Duration) (*Engine, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("RENDER_URL is required for the remote engine")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Engine{baseURL: base, httpClient: &http.Client{Timeout: timeout}}, nil
}

func (e *Engine) Open(ctx context.Context, doc render.Document) (render.Session, error) {
	if strings.TrimSpace(doc.Resource) == "" {
		return nil, errors.New("remote: document resource is required")
	}
	return &session{engine: e, doc: doc}, nil
}

type wireDocument struct {
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type wireChange struct {
	Region   string          `json:"region"`
	Property render.Property `json:"property"`
	Value    any             `json:"value"`
}

type renderRequest struct {
	Document wireDocument `json:"document"`
	Changes  []wireChange `json:"changes"`
}

type regionsResponse struct {
	Regions []render.Region `json:"regions"`
}

type session struct {
	engine *Engine
	doc    render.Document

	mu      sync.Mutex
	known   map[string]bool
	changes []wireChange
	closed  bool
}

func (s *session) Regions(ctx context.Context) ([]render.Region, error) {
	q := url.Values{}
	q.Set("name", s.doc.Name)
	q.Set("resource", s.doc.Resource)
	q.Set("width", strconv.Itoa(s.doc.Width))
	q.Set("height", strconv.Itoa(s.doc.Height))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.engine.baseURL+"/regions?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	body, err := s.engine.do(req)
	if err != nil {
		return nil, err
	}
	var parsed regionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("remote regions parse: %w", err)
	}

	s.mu.Lock()
	s.known = make(map[string]bool, len(parsed.Regions))
	for _, r := range parsed.Regions {
		s.known[r.Name] = true
	}
	s.mu.Unlock()
	return parsed.Regions, nil
}

// Set buffers a change. Region names are checked only after Regions has
// been called.
func (s *session) Set(ctx context.Context, region string, ch render.Change) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("remote: session closed")
	}
	if s.known != nil && !s.known[region] {
		return fmt.Errorf("%w: %s", render.ErrUnknownRegion, region)
	}
	s.changes = append(s.changes, wireChange{Region: region, Property: ch.Property, Value: ch.Value})
	return nil
}

func (s *session) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("remote: session closed")
	}
	payload := renderRequest{
		Document: wireDocument{Name: s.doc.Name, Resource: s.doc.Resource, Width: s.doc.Width, Height: s.doc.Height},
		Changes:  append([]wireChange{}, s.changes...),
	}
	s.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.engine.baseURL+"/render", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")
	return s.engine.do(req)
}

func (s *session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.changes = nil
	s.mu.Unlock()
	return nil
}

func (e *Engine) do(req *http.Request) ([]byte, error) {
	resp, err := e.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("%w: %v", render.ErrTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, fmt.Errorf("render service status %d: %s", resp.StatusCode, msg)
	}
	return body, nil
}
