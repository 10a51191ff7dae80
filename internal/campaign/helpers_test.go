package campaign

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"campaign-backend/internal/classifier"
	"campaign-backend/internal/llm"
	"campaign-backend/internal/regions"
	"campaign-backend/internal/render"
	"campaign-backend/internal/shared/storage/object"
	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/templates"
	"campaign-backend/internal/tier"
)

type fakeEngine struct {
	mu      sync.Mutex
	fail    map[string]error
	opened  []string
	changes map[string][]setCall
}

type setCall struct {
	region string
	change render.Change
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{fail: map[string]error{}, changes: map[string][]setCall{}}
}

func (e *fakeEngine) Open(ctx context.Context, doc render.Document) (render.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opened = append(e.opened, doc.Name)
	if err := e.fail[doc.Name]; err != nil {
		return nil, err
	}
	return &fakeSession{engine: e, doc: doc.Name}, nil
}

func (e *fakeEngine) calls(doc string) []setCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]setCall(nil), e.changes[doc]...)
}

type fakeSession struct {
	engine *fakeEngine
	doc    string
}

func (s *fakeSession) Regions(ctx context.Context) ([]render.Region, error) {
	return []render.Region{
		{Name: "titulo_principal", Kind: render.KindText, Position: render.Point{X: 100, Y: 200}},
		{Name: "botao_cta", Kind: render.KindText, Position: render.Point{X: 400, Y: 900}},
		{Name: "imagem_produto", Kind: render.KindImage},
	}, nil
}

func (s *fakeSession) Set(ctx context.Context, region string, ch render.Change) error {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	s.engine.changes[s.doc] = append(s.engine.changes[s.doc], setCall{region: region, change: ch})
	return nil
}

func (s *fakeSession) Export(ctx context.Context) ([]byte, error) {
	return []byte("png:" + s.doc), nil
}

func (s *fakeSession) Close() error { return nil }

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (m *memStore) SaveWithKey(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	if m.failPut != nil {
		return 0, m.failPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return int64(len(data)), nil
}

func (m *memStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", object.ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type stubReplier struct {
	text string
	err  error
	got  []llm.ReplyInput
}

func (r *stubReplier) Reply(ctx context.Context, in llm.ReplyInput) (string, error) {
	r.got = append(r.got, in)
	return r.text, r.err
}

type stubResolver struct {
	bundle suggestion.Bundle
	calls  int
	panics bool
}

func (r *stubResolver) Resolve(ctx context.Context, p suggestion.ProductInfo, forced *tier.Tier) suggestion.Bundle {
	r.calls++
	if r.panics {
		panic("resolver exploded")
	}
	return r.bundle
}

var errAlwaysDown = errors.New("advisory down")

type downAdvisor struct{}

func (downAdvisor) Suggest(ctx context.Context, p suggestion.ProductInfo) (string, error) {
	return "", errAlwaysDown
}

// newTestService wires real templates, classifier and region mapping around
// fake render, storage and reply collaborators. All six template resources
// exist.
func newTestService(t *testing.T) (*Service, *fakeEngine, *memStore) {
	t.Helper()
	reg := templates.NewDefault(t.TempDir())
	if _, err := reg.Bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	engine := newFakeEngine()
	store := newMemStore()
	resolver := classifier.New(downAdvisor{}, reg, classifier.Options{BaseDelay: time.Millisecond})
	svc := &Service{
		Resolver:      resolver,
		Templates:     reg,
		Planner:       regions.NewMapper(reg),
		Engine:        engine,
		Store:         store,
		Replier:       &stubReplier{text: "Olá! Vamos montar sua campanha."},
		Repo:          NewMemoryRepo(),
		OutputPrefix:  "output",
		RenderTimeout: 5 * time.Second,
		Now:           func() time.Time { return time.UnixMilli(1700000000000) },
	}
	return svc, engine, store
}
