package tier

// RGBA is a color with channels in [0,1].
type RGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Style holds the base styling applied to template regions when the
// suggestion bundle carries no explicit colors.
type Style struct {
	Primary   RGBA
	Secondary RGBA
	FontScale float64
}

// StyleFor returns the fixed style table entry for t. Invalid tiers get the
// mid entry.
func StyleFor(t Tier) Style {
	switch t {
	case Low:
		return Style{
			Primary:   RGBA{R: 0.2, G: 0.6, B: 0.9, A: 1},
			Secondary: RGBA{R: 0.1, G: 0.4, B: 0.8, A: 1},
			FontScale: 1.0,
		}
	case High:
		return Style{
			Primary:   RGBA{R: 0.8, G: 0.6, B: 0.2, A: 1},
			Secondary: RGBA{R: 0.6, G: 0.4, B: 0.1, A: 1},
			FontScale: 1.2,
		}
	default:
		return Style{
			Primary:   RGBA{R: 0.3, G: 0.7, B: 0.2, A: 1},
			Secondary: RGBA{R: 0.2, G: 0.5, B: 0.1, A: 1},
			FontScale: 1.1,
		}
	}
}
