package canvas

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"campaign-backend/internal/render"
	"campaign-backend/internal/shared/telemetry"
	"campaign-backend/internal/tier"
)

const maxBlurRadius = 20

var (
	defaultText      = tier.RGBA{A: 1}
	placeholderImage = tier.RGBA{R: 0.85, G: 0.85, B: 0.85, A: 1}
	baseFace         = basicfont.Face7x13
	baseFaceHeight   = float64(basicfont.Face7x13.Height)
)

func (s *session) rasterize(ctx context.Context) ([]byte, error) {
	dst := image.NewRGBA(image.Rect(0, 0, s.doc.Width, s.doc.Height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	for _, l := range s.layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.drawLayer(ctx, dst, l)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (l *layer) rect() image.Rectangle {
	p := l.region.Position
	return image.Rect(
		int(math.Round(p.X)),
		int(math.Round(p.Y)),
		int(math.Round(p.X+l.region.Width)),
		int(math.Round(p.Y+l.region.Height)),
	)
}

func (s *session) drawLayer(ctx context.Context, dst *image.RGBA, l *layer) {
	r := l.rect()
	switch l.region.Kind {
	case render.KindShape:
		drawShape(dst, r, l)
	case render.KindImage:
		s.drawImage(ctx, dst, r, l)
	case render.KindText:
		drawText(dst, l)
	}
	if l.blur > 0 {
		radius := int(math.Min(math.Round(l.blur), maxBlurRadius))
		blurPix(dst.Pix, dst.Stride, 4, r.Intersect(dst.Bounds()), radius)
	}
}

func drawShape(dst *image.RGBA, r image.Rectangle, l *layer) {
	fill, radius := l.fill, 0.0
	if l.background != nil {
		c := l.background.Color
		fill, radius = &c, l.background.CornerRadius
	}
	if fill == nil {
		return
	}
	if sh := l.shadow; sh != nil {
		off := image.Pt(int(sh.Offset.X), int(sh.Offset.Y))
		fillRounded(dst, r.Add(off), sh.Color, radius, l.opacity)
	}
	fillRounded(dst, r, *fill, radius, l.opacity)
}

func (s *session) drawImage(ctx context.Context, dst *image.RGBA, r image.Rectangle, l *layer) {
	if r.Empty() {
		return
	}
	if l.image == "" {
		fillRounded(dst, r, placeholderImage, 0, l.opacity)
		return
	}
	data, err := s.loader(ctx, l.image)
	var img image.Image
	if err == nil {
		img, err = decodeImage(data)
	}
	if err != nil {
		telemetry.Warn("canvas.image_failed", map[string]any{
			"template": s.doc.Name,
			"region":   l.region.Name,
			"error":    err.Error(),
		})
		fillRounded(dst, r, placeholderImage, 0, l.opacity)
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(255 * l.opacity))})
	draw.DrawMask(dst, r, scaled, image.Point{}, mask, image.Point{}, draw.Over)
}

func drawText(dst *image.RGBA, l *layer) {
	text := l.region.Text
	if text == "" {
		return
	}
	size := l.region.FontSize
	if size <= 0 {
		size = 24
	}
	scale := size / baseFaceHeight

	strokeR := 0
	if l.stroke != nil && l.stroke.Width > 0 {
		strokeR = int(math.Max(1, math.Round(l.stroke.Width/scale)))
	}
	pad := strokeR + 1

	width := font.MeasureString(baseFace, text).Ceil()
	glyphs := image.NewAlpha(image.Rect(0, 0, width+2*pad, baseFace.Height+2*pad))
	d := font.Drawer{
		Dst:  glyphs,
		Src:  image.Opaque,
		Face: baseFace,
		Dot:  fixed.P(pad, pad+baseFace.Ascent),
	}
	d.DrawString(text)

	origin := render.Point{
		X: l.region.Position.X - float64(pad)*scale,
		Y: l.region.Position.Y - float64(pad)*scale,
	}
	bounds := dst.Bounds()

	if sh := l.shadow; sh != nil {
		at := render.Point{X: origin.X + sh.Offset.X, Y: origin.Y + sh.Offset.Y}
		m := project(glyphs, bounds, at, scale, l.rotation)
		blurPix(m.Pix, m.Stride, 1, m.Rect, int(math.Min(sh.Blur.X, maxBlurRadius)))
		paint(dst, m, sh.Color, l.opacity)
	}
	if strokeR > 0 {
		paint(dst, project(dilate(glyphs, strokeR), bounds, origin, scale, l.rotation), l.stroke.Color, l.opacity)
	}
	fill := defaultText
	if l.fill != nil {
		fill = *l.fill
	}
	paint(dst, project(glyphs, bounds, origin, scale, l.rotation), fill, l.opacity)
}

// project scales and rotates src about its top-left corner, placing that
// corner at origin on a canvas-sized mask.
func project(src *image.Alpha, bounds image.Rectangle, origin render.Point, scale, degrees float64) *image.Alpha {
	out := image.NewAlpha(bounds)
	rad := degrees * math.Pi / 180
	c, s := math.Cos(rad)*scale, math.Sin(rad)*scale
	m := f64.Aff3{c, -s, origin.X, s, c, origin.Y}
	xdraw.BiLinear.Transform(out, m, src, src.Bounds(), xdraw.Src, nil)
	return out
}

func paint(dst *image.RGBA, mask *image.Alpha, c tier.RGBA, opacity float64) {
	draw.DrawMask(dst, dst.Bounds(), image.NewUniform(toNRGBA(c, opacity)), image.Point{}, mask, mask.Rect.Min, draw.Over)
}

func fillRounded(dst *image.RGBA, r image.Rectangle, c tier.RGBA, radius, opacity float64) {
	draw.DrawMask(dst, r, image.NewUniform(toNRGBA(c, opacity)), image.Point{}, roundedRect{r: r, radius: radius}, r.Min, draw.Over)
}

func toNRGBA(c tier.RGBA, opacity float64) color.NRGBA {
	ch := func(v float64) uint8 { return uint8(math.Round(clamp01(v) * 255)) }
	return color.NRGBA{R: ch(c.R), G: ch(c.G), B: ch(c.B), A: ch(c.A * opacity)}
}

// roundedRect is an opaque mask over r with circular corners.
type roundedRect struct {
	r      image.Rectangle
	radius float64
}

func (m roundedRect) ColorModel() color.Model { return color.AlphaModel }
func (m roundedRect) Bounds() image.Rectangle { return m.r }

func (m roundedRect) At(x, y int) color.Color {
	if !image.Pt(x, y).In(m.r) {
		return color.Alpha{}
	}
	rad := math.Min(m.radius, math.Min(float64(m.r.Dx()), float64(m.r.Dy()))/2)
	if rad <= 0 {
		return color.Alpha{A: 0xff}
	}
	px, py := float64(x)+0.5, float64(y)+0.5
	cx := math.Max(float64(m.r.Min.X)+rad, math.Min(px, float64(m.r.Max.X)-rad))
	cy := math.Max(float64(m.r.Min.Y)+rad, math.Min(py, float64(m.r.Max.Y)-rad))
	if dx, dy := px-cx, py-cy; dx*dx+dy*dy > rad*rad {
		return color.Alpha{}
	}
	return color.Alpha{A: 0xff}
}

// dilate grows the mask by r pixels in every direction.
func dilate(src *image.Alpha, r int) *image.Alpha {
	b := src.Bounds()
	out := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var peak uint8
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					if dx*dx+dy*dy > r*r || !image.Pt(x+dx, y+dy).In(b) {
						continue
					}
					if a := src.AlphaAt(x+dx, y+dy).A; a > peak {
						peak = a
					}
				}
			}
			out.SetAlpha(x, y, color.Alpha{A: peak})
		}
	}
	return out
}

// blurPix runs a separable box blur over r in a pixel buffer with ch
// interleaved channels. r is in buffer coordinates.
func blurPix(pix []uint8, stride, ch int, r image.Rectangle, radius int) {
	if radius <= 0 || r.Empty() {
		return
	}
	w, h := r.Dx(), r.Dy()
	buf := make([]uint8, w*h*ch)
	at := func(x, y int) int { return (r.Min.Y+y)*stride + (r.Min.X+x)*ch }

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < ch; c++ {
				sum, n := 0, 0
				for k := max(0, x-radius); k <= min(w-1, x+radius); k++ {
					sum += int(pix[at(k, y)+c])
					n++
				}
				buf[(y*w+x)*ch+c] = uint8(sum / n)
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < ch; c++ {
				sum, n := 0, 0
				for k := max(0, y-radius); k <= min(h-1, y+radius); k++ {
					sum += int(buf[(k*w+x)*ch+c])
					n++
				}
				pix[at(x, y)+c] = uint8(sum / n)
			}
		}
	}
}
