// Package regions turns a suggestion bundle into per-region mutations for
// one template.
package regions

import (
	"math"
	"sort"

	"campaign-backend/internal/render"
	"campaign-backend/internal/shared/telemetry"
	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/templates"
	"campaign-backend/internal/tier"
)

const (
	defaultFontSize = 24.0

	storyDescriptionLimit = 80
	feedDescriptionLimit  = 100

	defaultPrice    = "Consulte valores"
	defaultLocation = "Localização"

	defaultBackgroundBlur = 1.0
)

// defaultRotation applies when the bundle carries no rotation map.
var defaultRotation = map[string]float64{string(templates.RoleSubtitle): -3.5}

var (
	shadowColor = tier.RGBA{A: 0.4}
	strokeColor = tier.RGBA{R: 1, G: 1, B: 1, A: 0.8}
	priceGlow   = render.Stroke{Width: 1, Color: tier.RGBA{R: 1, G: 0.9, B: 1, A: 0.6}}
)

// Catalog resolves template names to descriptors.
type Catalog interface {
	ByName(name string) (templates.Descriptor, bool)
}

// Input is everything the mapper needs for one template of a batch.
type Input struct {
	Bundle  suggestion.Bundle
	Product suggestion.ProductInfo
	// Regions are the regions of the open document. When empty they are
	// synthesized from the descriptor's role map.
	Regions []render.Region
	// BatchIndex is the template's position in the campaign; 0 is the lead.
	BatchIndex int
	// PinnedImage overrides image cycling for every image region.
	PinnedImage string
}

type Mapper struct {
	catalog Catalog
}

func NewMapper(c Catalog) *Mapper {
	return &Mapper{catalog: c}
}

// Plan returns the mutations for the named template in region order. An
// unknown template yields an empty plan.
func (m *Mapper) Plan(template string, in Input) []render.Mutation {
	desc, ok := m.catalog.ByName(template)
	if !ok {
		telemetry.Warn("regions.descriptor_missing", map[string]any{"template": template})
		return []render.Mutation{}
	}

	regions := in.Regions
	if len(regions) == 0 {
		regions = synthesize(desc)
	}

	p := planner{desc: desc, in: in, inverse: desc.Inverse(), style: tier.StyleFor(in.Bundle.Tier)}
	out := make([]render.Mutation, 0, len(regions))
	for _, r := range regions {
		if mut := p.region(r); !mut.Empty() {
			out = append(out, mut)
		}
	}
	return out
}

// synthesize builds region snapshots from the role map, sorted by name.
func synthesize(desc templates.Descriptor) []render.Region {
	out := make([]render.Region, 0, len(desc.Roles))
	for role, name := range desc.Roles {
		if name == "" {
			continue
		}
		kind := render.KindText
		if role.IsImage() || role.IsLogo() {
			kind = render.KindImage
		}
		out = append(out, render.Region{Name: name, Kind: kind})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type planner struct {
	desc     templates.Descriptor
	in       Input
	inverse  map[string]templates.Role
	style    tier.Style
	imageIdx int
}

func (p *planner) region(r render.Region) render.Mutation {
	role, mapped := p.inverse[r.Name]
	if !mapped {
		role = inferRole(r.Name)
	}
	kind := r.Kind
	if kind == "" {
		kind = render.KindText
		if role.IsImage() || role.IsLogo() {
			kind = render.KindImage
		}
	}

	bg := like(r.Name, role, backgroundWords)
	cta := role == templates.RoleCTA || like(r.Name, role, ctaWords)
	composite := bg && cta

	m := render.Mutation{Region: r.Name, Role: string(role)}

	switch {
	case role.IsLogo():
		if p.in.Product.Logo != "" {
			m.Image = ptr(p.in.Product.Logo)
		}
	case role.IsImage():
		if uri := p.nextImage(); uri != "" {
			m.Image = ptr(uri)
		}
	}

	if isTextRole(role) && !composite {
		if text, ok := p.text(role); ok {
			m.Text = ptr(text)
		}
	}

	isText := kind == render.KindText
	if isText || cta {
		m.Fill = ptr(p.fill(cta))
	}
	fontSize := 0.0
	if isText {
		fontSize = r.FontSize
		if fontSize <= 0 {
			fontSize = defaultFontSize
		}
		scale := p.style.FontScale
		if p.in.BatchIndex > 0 {
			scale *= 0.9
		}
		fontSize *= scale
	}

	if e := p.in.Bundle.Effects; e != nil {
		if bg {
			blur := e.TitleBlur
			if blur <= 0 {
				blur = defaultBackgroundBlur
			}
			m.Blur = ptr(blur)
		}
		if cta && e.CTADropShadow {
			m.Shadow = &render.Shadow{
				Blur:   render.Point{X: 4, Y: 4},
				Offset: render.Point{X: 2, Y: 2},
				Color:  shadowColor,
			}
		}
		mainTitle := isMainTitle(r.Name, role)
		price := !mainTitle && isPrice(r.Name, role)
		if isText && e.TextStroke && (mainTitle || price) {
			m.Stroke = &render.Stroke{Width: e.StrokeWidth, Color: strokeColor}
		}
		if bg && !like(r.Name, role, locationWords) {
			m.Opacity = ptr(e.BackgroundOpacity)
		}
		if composite {
			m.Background = &render.Fill{Color: p.fill(true), CornerRadius: e.CornerRadius}
		}
		if isText && mainTitle {
			fontSize *= 1.2
		}
		if isText && price {
			fontSize *= 1.1
			glow := priceGlow
			m.Stroke = &glow
		}
	}
	if deg, ok := p.rotation()[string(role)]; ok && role != "" {
		m.Rotation = ptr(deg)
	}
	if isText {
		m.FontSize = ptr(round2(fontSize))
	}

	if pos, ok := p.position(r, role, kind); ok {
		m.Position = &pos
	}
	return m
}

func (p *planner) nextImage() string {
	if p.in.PinnedImage != "" {
		return p.in.PinnedImage
	}
	imgs := p.in.Product.Images
	if len(imgs) == 0 {
		return ""
	}
	uri := imgs[p.imageIdx%len(imgs)]
	p.imageIdx++
	return uri
}

func (p *planner) rotation() map[string]float64 {
	if e := p.in.Bundle.Effects; e != nil && e.Rotation != nil {
		return e.Rotation
	}
	return defaultRotation
}

// fill picks the region color: the bundle color for the role when set,
// otherwise the tier style table.
func (p *planner) fill(cta bool) tier.RGBA {
	var c suggestion.Colors
	if p.in.Bundle.Colors != nil {
		c = *p.in.Bundle.Colors
	}
	switch {
	case cta:
		return orStyle(c.CTAButton, p.style.Primary)
	case p.in.BatchIndex == 0:
		return orStyle(c.PrimaryTitle, p.style.Primary)
	default:
		return orStyle(c.SecondaryTitle, p.style.Secondary)
	}
}

func orStyle(c *tier.RGBA, fallback tier.RGBA) tier.RGBA {
	if c == nil {
		return fallback
	}
	return *c
}

func (p *planner) text(role templates.Role) (string, bool) {
	t := p.in.Bundle.Text
	story := p.desc.Format == templates.Story
	label := p.in.Bundle.Tier.Label()

	switch role {
	case templates.RoleTitle:
		if story {
			return first(t.StoryTitle, t.Title, "Oportunidade Única!"), true
		}
		return first(t.FeedTitle, t.Title, "Novo Empreendimento"), true
	case templates.RoleSubtitle:
		if story {
			return first(t.StorySubtitle, t.Subtitle, label+" PADRÃO"), true
		}
		return first(t.FeedSubtitle, t.Subtitle, label+" PADRÃO - Qualidade Garantida"), true
	case templates.RoleCTA:
		if story {
			return first(t.StoryCTA, t.CTA, "FALE CONOSCO"), true
		}
		return first(t.FeedCTA, t.CTA, "SAIBA MAIS"), true
	case templates.RolePrice:
		return first(t.Price, defaultPrice), true
	case templates.RoleLocation:
		return first(p.in.Product.Location, defaultLocation), true
	case templates.RoleDescription:
		if p.in.Product.Description == "" {
			return "", false
		}
		limit := feedDescriptionLimit
		if story {
			limit = storyDescriptionLimit
		}
		return truncate(p.in.Product.Description, limit), true
	}
	return "", false
}

// position applies the bundle offsets with per-role clamping, then the
// overlap margin. ok is false when the region does not move.
func (p *planner) position(r render.Region, role templates.Role, kind render.RegionKind) (render.Point, bool) {
	cur := r.Position
	next := cur

	if pos := p.in.Bundle.Positioning; pos != nil {
		switch {
		case role == templates.RoleTitle && pos.Title != nil:
			next = floorAt(add(cur, *pos.Title), 50)
		case role == templates.RoleSubtitle && pos.Subtitle != nil:
			next = floorAt(add(cur, *pos.Subtitle), 50)
		case role == templates.RolePrice && pos.Price != nil:
			next = floorAt(add(cur, *pos.Price), 50)
		case role == templates.RoleCTA && pos.CTA != nil:
			next = clampPoint(add(cur, *pos.CTA), 50, 1000)
		case role.IsImage() && pos.Image != nil:
			next = clampPoint(add(cur, *pos.Image), -200, 800)
		}
	}

	if l := p.in.Bundle.Layout; l != nil && l.AvoidOverlap {
		if role == templates.RoleTitle || role == templates.RoleSubtitle || kind == render.KindText {
			next = floorAt(next, 5)
		}
	}
	return next, next != cur
}

func add(p render.Point, o suggestion.Offset) render.Point {
	return render.Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func floorAt(p render.Point, lo float64) render.Point {
	return render.Point{X: math.Max(lo, p.X), Y: math.Max(lo, p.Y)}
}

func clampPoint(p render.Point, lo, hi float64) render.Point {
	return render.Point{
		X: math.Max(lo, math.Min(hi, p.X)),
		Y: math.Max(lo, math.Min(hi, p.Y)),
	}
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func ptr[T any](v T) *T { return &v }
