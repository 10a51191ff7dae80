package render

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campaign-backend/internal/tier"
)

type fakeSession struct {
	mu      sync.Mutex
	regions []Region
	set     map[string][]Change
	closed  bool
	block   chan struct{}
}

func (s *fakeSession) Regions(ctx context.Context) ([]Region, error) { return s.regions, nil }

func (s *fakeSession) Set(ctx context.Context, region string, ch Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	known := false
	for _, r := range s.regions {
		if r.Name == region {
			known = true
		}
	}
	if !known {
		return ErrUnknownRegion
	}
	s.set[region] = append(s.set[region], ch)
	return nil
}

func (s *fakeSession) Export(ctx context.Context) ([]byte, error) {
	if s.block != nil {
		<-s.block
	}
	return []byte("png"), nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeEngine struct {
	session *fakeSession
	openErr error
}

func (e *fakeEngine) Open(ctx context.Context, doc Document) (Session, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	return e.session, nil
}

func newFake(names ...string) *fakeSession {
	s := &fakeSession{set: map[string][]Change{}}
	for _, n := range names {
		s.regions = append(s.regions, Region{Name: n, Kind: KindText})
	}
	return s
}

func ptr[T any](v T) *T { return &v }

func TestChangeValidate(t *testing.T) {
	tests := []struct {
		name string
		ch   Change
		want error
	}{
		{"text ok", Change{PropText, "Olá"}, nil},
		{"color ok", Change{PropFillColor, tier.RGBA{R: 1, A: 1}}, nil},
		{"number as int", Change{PropFontSize, 24}, ErrInvalidValue},
		{"string color", Change{PropFillColor, "#fff"}, ErrInvalidValue},
		{"unknown", Change{Property("glow"), 1.0}, ErrUnknownProperty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ch.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMutationChangesOrder(t *testing.T) {
	m := Mutation{
		Region:   "titulo_principal",
		Position: &Point{X: 1, Y: 2},
		Text:     ptr("Oi"),
		FontSize: ptr(30.0),
	}
	got := m.Changes()
	if len(got) != 3 || got[0].Property != PropText || got[1].Property != PropFontSize || got[2].Property != PropPosition {
		t.Fatalf("unexpected order: %+v", got)
	}
	if !(Mutation{Region: "x"}).Empty() {
		t.Fatalf("expected empty mutation")
	}
}

func TestApplySkipsUnknownRegions(t *testing.T) {
	s := newFake("titulo_principal")
	err := Apply(context.Background(), s, []Mutation{
		{Region: "camada_removida", Text: ptr("x")},
		{Region: "titulo_principal", Text: ptr("Novo"), Rotation: ptr(-3.5)},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(s.set["titulo_principal"]) != 2 {
		t.Fatalf("expected 2 changes, got %+v", s.set)
	}
}

func TestRenderClosesSession(t *testing.T) {
	s := newFake("preco")
	e := &fakeEngine{session: s}
	out, err := Render(context.Background(), e, Document{Name: "template_baixo_feed"}, time.Second, func(regions []Region) []Mutation {
		if len(regions) != 1 {
			t.Errorf("expected regions from session, got %d", len(regions))
		}
		return []Mutation{{Region: "preco", Text: ptr("R$ 1")}}
	})
	if err != nil || string(out) != "png" {
		t.Fatalf("unexpected result %q %v", out, err)
	}
	if !s.isClosed() {
		t.Fatalf("expected session to be closed")
	}
}

func TestWithSessionClosesOnPanic(t *testing.T) {
	s := newFake()
	err := WithSession(context.Background(), &fakeEngine{session: s}, Document{Name: "t"}, 0, func(ctx context.Context, _ Session) error {
		panic("boom")
	})
	if err == nil {
		t.Fatalf("expected panic to surface as error")
	}
	if !s.isClosed() {
		t.Fatalf("expected session to be closed after panic")
	}
}

func TestWithSessionOpenError(t *testing.T) {
	err := WithSession(context.Background(), &fakeEngine{openErr: errors.New("no file")}, Document{Name: "t"}, 0, func(context.Context, Session) error {
		t.Errorf("fn must not run")
		return nil
	})
	if err == nil {
		t.Fatalf("expected open error")
	}
}

func TestRenderTimeout(t *testing.T) {
	s := newFake()
	s.block = make(chan struct{})
	e := &fakeEngine{session: s}

	_, err := Render(context.Background(), e, Document{Name: "template_alto_story"}, 20*time.Millisecond, func([]Region) []Mutation { return nil })
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	close(s.block)
	deadline := time.Now().Add(time.Second)
	for !s.isClosed() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !s.isClosed() {
		t.Fatalf("expected session to be released after the export returned")
	}
}
