package templates

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"campaign-backend/internal/shared/telemetry"
	"campaign-backend/internal/tier"
)

var (
	ErrNotFound    = errors.New("template not found")
	ErrUnavailable = errors.New("template resource missing")
)

const manifestName = "README.md"

// Registry holds the template catalog. Descriptors are read-only after
// construction; availability is checked against the filesystem on every call.
type Registry struct {
	dir    string
	list   []Descriptor
	byName map[string]Descriptor
	stat   func(string) (fs.FileInfo, error)
}

// NewRegistry builds a registry over dir. Later descriptors with a duplicate
// name are ignored.
func NewRegistry(dir string, descriptors []Descriptor) *Registry {
	r := &Registry{
		dir:    dir,
		byName: make(map[string]Descriptor, len(descriptors)),
		stat:   os.Stat,
	}
	for _, d := range descriptors {
		if _, dup := r.byName[d.Name]; dup {
			continue
		}
		r.byName[d.Name] = d
		r.list = append(r.list, d)
	}
	return r
}

// NewDefault builds a registry over the built-in catalog.
func NewDefault(dir string) *Registry {
	return NewRegistry(dir, Catalog())
}

// Dir returns the template directory.
func (r *Registry) Dir() string { return r.dir }

// All returns every configured descriptor in catalog order.
func (r *Registry) All() []Descriptor {
	return append([]Descriptor(nil), r.list...)
}

// ByTier returns the descriptors configured for t, in catalog order.
func (r *Registry) ByTier(t tier.Tier) []Descriptor {
	var out []Descriptor
	for _, d := range r.list {
		if d.Tier == t {
			out = append(out, d)
		}
	}
	return out
}

// ByName looks up a descriptor.
func (r *Registry) ByName(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Path returns the full path of the descriptor's backing resource.
func (r *Registry) Path(d Descriptor) string {
	return filepath.Join(r.dir, d.Resource)
}

// IsAvailable reports whether name is configured and its resource exists now.
func (r *Registry) IsAvailable(name string) bool {
	d, ok := r.byName[name]
	if !ok {
		return false
	}
	info, err := r.stat(r.Path(d))
	return err == nil && !info.IsDir()
}

// Recommend returns the names of the available templates for t.
func (r *Registry) Recommend(t tier.Tier) []string {
	out := []string{}
	for _, d := range r.ByTier(t) {
		if r.IsAvailable(d.Name) {
			out = append(out, d.Name)
		}
	}
	return out
}

// Info describes one template in a status report.
type Info struct {
	Name    string    `json:"name"`
	Profile tier.Tier `json:"profile"`
	Format  Format    `json:"format"`
	Path    string    `json:"path"`
}

// Status splits the catalog by availability.
type Status struct {
	Available []Info `json:"available"`
	Missing   []Info `json:"missing"`
}

func (r *Registry) Status() Status {
	st := Status{Available: []Info{}, Missing: []Info{}}
	for _, d := range r.list {
		info := Info{Name: d.Name, Profile: d.Tier, Format: d.Format, Path: r.Path(d)}
		if r.IsAvailable(d.Name) {
			st.Available = append(st.Available, info)
		} else {
			st.Missing = append(st.Missing, info)
		}
	}
	return st
}

// Bootstrap creates empty placeholder resources and a manifest for anything
// missing. Existing files are never touched. It returns the paths it created.
func (r *Registry) Bootstrap() ([]string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir templates: %w", err)
	}
	var created []string
	for _, d := range r.list {
		path := r.Path(d)
		ok, err := createIfMissing(path, nil)
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, path)
			telemetry.Info("templates.placeholder_created", map[string]any{"template": d.Name, "path": path})
		}
	}
	manifest := filepath.Join(r.dir, manifestName)
	ok, err := createIfMissing(manifest, []byte(r.manifest()))
	if err != nil {
		return created, err
	}
	if ok {
		created = append(created, manifest)
	}
	return created, nil
}

func createIfMissing(path string, content []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if len(content) > 0 {
		if _, err := f.Write(content); err != nil {
			return true, fmt.Errorf("write %s: %w", path, err)
		}
	}
	return true, nil
}

func (r *Registry) manifest() string {
	var b strings.Builder
	b.WriteString("# Campaign templates\n\n")
	b.WriteString("Replace each placeholder with the real design file. Expected templates:\n\n")
	for _, d := range r.list {
		w, h := d.Format.Size()
		fmt.Fprintf(&b, "- `%s` (%s, %s %dx%d): %s\n", d.Resource, d.Name, d.Format, w, h, d.Tier.Label())
	}
	b.WriteString("\nRequired region names:\n\n")
	roles := make([]string, 0, len(DefaultRoles()))
	for role, name := range DefaultRoles() {
		roles = append(roles, fmt.Sprintf("- %s: `%s`", role, name))
	}
	sort.Strings(roles)
	b.WriteString(strings.Join(roles, "\n"))
	b.WriteString("\n")
	return b.String()
}
