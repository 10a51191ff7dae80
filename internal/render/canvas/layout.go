package canvas

import "campaign-backend/internal/render"

// Region names of the default preview layout. They follow the catalog's
// region naming plus two decoration shapes.
const (
	RegionBackground    = "fundo"
	RegionImage         = "imagem_produto"
	RegionLogo          = "logo_empresa"
	RegionTitle         = "titulo_principal"
	RegionSubtitle      = "subtitulo"
	RegionPrice         = "preco"
	RegionLocation      = "localizacao"
	RegionDescription   = "descricao"
	RegionCTABackground = "botao_cta_fundo"
	RegionCTA           = "botao_cta"
)

// DefaultLayout places the standard regions on a width x height canvas,
// back to front. Story canvases get taller text.
func DefaultLayout(width, height int) []render.Region {
	w, h := float64(width), float64(height)
	story := h > w
	scale := 1.0
	if story {
		scale = 1.15
	}
	const margin = 80.0
	textW := w - 2*margin
	y := func(frac float64) float64 { return h * frac }

	return []render.Region{
		{Name: RegionBackground, Kind: render.KindShape, Width: w, Height: h},
		{Name: RegionImage, Kind: render.KindImage, Width: w, Height: y(0.52)},
		{Name: RegionLogo, Kind: render.KindImage, Position: render.Point{X: w - 220, Y: 40}, Width: 180, Height: 90},
		{Name: RegionTitle, Kind: render.KindText, Position: render.Point{X: margin, Y: y(0.56)}, Width: textW, Height: 80, FontSize: 60 * scale},
		{Name: RegionSubtitle, Kind: render.KindText, Position: render.Point{X: margin, Y: y(0.64)}, Width: textW, Height: 50, FontSize: 34 * scale},
		{Name: RegionPrice, Kind: render.KindText, Position: render.Point{X: margin, Y: y(0.71)}, Width: textW, Height: 60, FontSize: 44 * scale},
		{Name: RegionLocation, Kind: render.KindText, Position: render.Point{X: margin, Y: y(0.78)}, Width: textW, Height: 36, FontSize: 26 * scale},
		{Name: RegionDescription, Kind: render.KindText, Position: render.Point{X: margin, Y: y(0.82)}, Width: textW, Height: 36, FontSize: 22 * scale},
		{Name: RegionCTABackground, Kind: render.KindShape, Position: render.Point{X: margin, Y: y(0.88)}, Width: 460, Height: 90},
		{Name: RegionCTA, Kind: render.KindText, Position: render.Point{X: margin + 30, Y: y(0.88) + 24}, Width: 400, Height: 44, FontSize: 32 * scale},
	}
}
