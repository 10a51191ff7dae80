package regions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-backend/internal/render"
	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/templates"
	"campaign-backend/internal/tier"
)

func newMapper(t *testing.T) *Mapper {
	t.Helper()
	return NewMapper(templates.NewDefault(t.TempDir()))
}

func byRegion(muts []render.Mutation) map[string]render.Mutation {
	out := make(map[string]render.Mutation, len(muts))
	for _, m := range muts {
		out[m.Region] = m
	}
	return out
}

func textRegion(name string, x, y float64) render.Region {
	return render.Region{Name: name, Kind: render.KindText, Position: render.Point{X: x, Y: y}}
}

func TestPlanUnknownTemplateIsEmpty(t *testing.T) {
	got := newMapper(t).Plan("template_luxo_feed", Input{Bundle: suggestion.Bundle{Tier: tier.Mid}})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPlanFeedDefaults(t *testing.T) {
	in := Input{
		Bundle:  suggestion.Bundle{Tier: tier.Mid},
		Product: suggestion.ProductInfo{Description: "Apartamento compacto"},
	}
	muts := byRegion(newMapper(t).Plan("template_medio_feed", in))

	want := map[string]string{
		"titulo_principal": "Novo Empreendimento",
		"subtitulo":        "MEDIO PADRÃO - Qualidade Garantida",
		"botao_cta":        "SAIBA MAIS",
		"preco":            "Consulte valores",
		"localizacao":      "Localização",
		"descricao":        "Apartamento compacto",
	}
	for region, text := range want {
		m, ok := muts[region]
		require.True(t, ok, "missing mutation for %s", region)
		require.NotNil(t, m.Text, region)
		assert.Equal(t, text, *m.Text, region)
		require.NotNil(t, m.Fill, region)
		assert.Equal(t, tier.StyleFor(tier.Mid).Primary, *m.Fill, region)
		require.NotNil(t, m.FontSize, region)
		assert.InDelta(t, 26.4, *m.FontSize, 0.001, region)
	}

	// no images supplied, so image regions carry nothing
	_, ok := muts["imagem_produto"]
	assert.False(t, ok)
	_, ok = muts["logo_empresa"]
	assert.False(t, ok)
}

func TestPlanStoryVariantsAndTruncation(t *testing.T) {
	desc := strings.Repeat("á", 120)
	in := Input{
		Bundle: suggestion.Bundle{
			Tier: tier.Low,
			Text: suggestion.TextVariants{
				StoryTitle: "Seu lar chegou",
				Title:      "Generic",
				CTA:        "Chame agora",
				Price:      "R$ 199 mil",
			},
		},
		Product: suggestion.ProductInfo{Description: desc, Location: "Campinas"},
	}
	muts := byRegion(newMapper(t).Plan("template_baixo_story", in))

	assert.Equal(t, "Seu lar chegou", *muts["titulo_principal"].Text)
	assert.Equal(t, "BAIXO PADRÃO", *muts["subtitulo"].Text)
	assert.Equal(t, "Chame agora", *muts["botao_cta"].Text)
	assert.Equal(t, "R$ 199 mil", *muts["preco"].Text)
	assert.Equal(t, "Campinas", *muts["localizacao"].Text)

	got := *muts["descricao"].Text
	assert.Equal(t, 80, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"curto", 10, "curto"},
		{"exatamente", 10, "exatamente"},
		{"passou do limite", 10, "passou ..."},
		{"  espaços  ", 20, "  espaços  "},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.limit), tt.in)
	}
}

func TestPlanPositioning(t *testing.T) {
	in := Input{
		Bundle: suggestion.Bundle{
			Tier: tier.Mid,
			Positioning: &suggestion.Positioning{
				Title:    &suggestion.Offset{X: -30, Y: -80},
				Subtitle: &suggestion.Offset{X: -100, Y: 10},
				CTA:      &suggestion.Offset{X: 2000, Y: -500},
				Image:    &suggestion.Offset{X: -900, Y: 900},
			},
		},
		Regions: []render.Region{
			textRegion("titulo_principal", 100, 200),
			textRegion("subtitulo", 60, 300),
			textRegion("botao_cta", 500, 100),
			{Name: "imagem_produto", Kind: render.KindImage, Position: render.Point{X: 0, Y: 0}},
			textRegion("preco", 300, 300),
		},
	}
	muts := byRegion(newMapper(t).Plan("template_medio_feed", in))

	assert.Equal(t, render.Point{X: 70, Y: 120}, *muts["titulo_principal"].Position)
	assert.Equal(t, render.Point{X: 50, Y: 310}, *muts["subtitulo"].Position)
	assert.Equal(t, render.Point{X: 1000, Y: 50}, *muts["botao_cta"].Position)
	assert.Equal(t, render.Point{X: -200, Y: 800}, *muts["imagem_produto"].Position)
	assert.Nil(t, muts["preco"].Position, "no price offset leaves price in place")
}

func TestPlanPositioningOnlyMovesListedRoles(t *testing.T) {
	in := Input{
		Bundle: suggestion.Bundle{
			Tier:        tier.High,
			Positioning: &suggestion.Positioning{Image: &suggestion.Offset{X: 10, Y: 10}},
		},
		Regions: []render.Region{
			textRegion("titulo_principal", 10, 10),
			textRegion("botao_cta", 20, 20),
			{Name: "imagem_produto", Kind: render.KindImage, Position: render.Point{X: 0, Y: 0}},
		},
	}
	muts := byRegion(newMapper(t).Plan("template_alto_feed", in))

	assert.Nil(t, muts["titulo_principal"].Position)
	assert.Nil(t, muts["botao_cta"].Position)
	assert.Equal(t, render.Point{X: 10, Y: 10}, *muts["imagem_produto"].Position)
}

func TestPlanAvoidOverlapMargin(t *testing.T) {
	in := Input{
		Bundle: suggestion.Bundle{Tier: tier.Mid, Layout: &suggestion.Layout{AvoidOverlap: true}},
		Regions: []render.Region{
			textRegion("subtitulo", 2, 3),
			textRegion("localizacao", 0, 40),
			{Name: "imagem_produto", Kind: render.KindImage},
		},
	}
	muts := byRegion(newMapper(t).Plan("template_medio_feed", in))

	assert.Equal(t, render.Point{X: 5, Y: 5}, *muts["subtitulo"].Position)
	assert.Equal(t, render.Point{X: 5, Y: 40}, *muts["localizacao"].Position)
	_, ok := muts["imagem_produto"]
	assert.False(t, ok)
}

func TestPlanBundleColors(t *testing.T) {
	colors := &suggestion.Colors{
		PrimaryTitle:   &tier.RGBA{R: 1, A: 1},
		SecondaryTitle: &tier.RGBA{G: 1, A: 1},
		CTAButton:      &tier.RGBA{B: 1, A: 1},
	}
	regions := []render.Region{
		textRegion("titulo_principal", 100, 100),
		textRegion("botao_cta", 100, 900),
		{Name: "fundo", Kind: render.KindShape},
	}

	lead := byRegion(newMapper(t).Plan("template_alto_feed", Input{
		Bundle:  suggestion.Bundle{Tier: tier.High, Colors: colors},
		Regions: regions,
	}))
	assert.Equal(t, *colors.PrimaryTitle, *lead["titulo_principal"].Fill)
	assert.Equal(t, *colors.CTAButton, *lead["botao_cta"].Fill)
	assert.InDelta(t, 28.8, *lead["titulo_principal"].FontSize, 0.001)
	_, ok := lead["fundo"]
	assert.False(t, ok, "shape regions get no base styling")

	next := byRegion(newMapper(t).Plan("template_alto_story", Input{
		Bundle:     suggestion.Bundle{Tier: tier.High, Colors: colors},
		Regions:    regions,
		BatchIndex: 1,
	}))
	assert.Equal(t, *colors.SecondaryTitle, *next["titulo_principal"].Fill)
	assert.Equal(t, *colors.CTAButton, *next["botao_cta"].Fill)
	assert.InDelta(t, 25.92, *next["titulo_principal"].FontSize, 0.001)
}

func TestPlanPartialColorsFallBackToTierStyle(t *testing.T) {
	colors := &suggestion.Colors{PrimaryTitle: &tier.RGBA{R: 0.9, G: 0.8, B: 0.1, A: 1}}
	regions := []render.Region{
		textRegion("titulo_principal", 100, 100),
		textRegion("botao_cta", 100, 900),
	}
	style := tier.StyleFor(tier.High)

	lead := byRegion(newMapper(t).Plan("template_alto_feed", Input{
		Bundle:  suggestion.Bundle{Tier: tier.High, Colors: colors},
		Regions: regions,
	}))
	assert.Equal(t, *colors.PrimaryTitle, *lead["titulo_principal"].Fill)
	assert.Equal(t, style.Primary, *lead["botao_cta"].Fill)

	next := byRegion(newMapper(t).Plan("template_alto_story", Input{
		Bundle:     suggestion.Bundle{Tier: tier.High, Colors: colors},
		Regions:    regions,
		BatchIndex: 1,
	}))
	assert.Equal(t, style.Secondary, *next["titulo_principal"].Fill)
	assert.Equal(t, style.Primary, *next["botao_cta"].Fill)
}

func TestPlanTierColorsForSecondTemplate(t *testing.T) {
	muts := byRegion(newMapper(t).Plan("template_alto_story", Input{
		Bundle:     suggestion.Bundle{Tier: tier.High},
		Regions:    []render.Region{textRegion("subtitulo", 100, 100)},
		BatchIndex: 1,
	}))
	assert.Equal(t, tier.StyleFor(tier.High).Secondary, *muts["subtitulo"].Fill)
}

func TestPlanEffects(t *testing.T) {
	in := Input{
		Bundle: suggestion.Bundle{
			Tier: tier.Low,
			Effects: &suggestion.Effects{
				TitleBlur:         3,
				CTADropShadow:     true,
				BackgroundOpacity: 0.8,
				StrokeWidth:       2,
				CornerRadius:      12,
				TextStroke:        true,
				Rotation:          map[string]float64{"title": 2, "subtitle": -3.5},
			},
		},
		Regions: []render.Region{
			{Name: "fundo", Kind: render.KindShape},
			{Name: "botao_cta_fundo", Kind: render.KindShape},
			{Name: "titulo_principal", Kind: render.KindText, Position: render.Point{X: 100, Y: 100}, FontSize: 40},
			textRegion("subtitulo", 100, 200),
			textRegion("preco", 100, 300),
			textRegion("botao_cta", 100, 900),
		},
	}
	muts := byRegion(newMapper(t).Plan("template_baixo_feed", in))
	style := tier.StyleFor(tier.Low)

	bg := muts["fundo"]
	assert.Equal(t, 3.0, *bg.Blur)
	assert.Equal(t, 0.8, *bg.Opacity)
	assert.Nil(t, bg.Background)
	assert.Nil(t, bg.Fill)

	composite := muts["botao_cta_fundo"]
	assert.Nil(t, composite.Text, "composite regions never receive text")
	require.NotNil(t, composite.Background)
	assert.Equal(t, render.Fill{Color: style.Primary, CornerRadius: 12}, *composite.Background)
	require.NotNil(t, composite.Shadow)
	assert.Equal(t, render.Point{X: 2, Y: 2}, composite.Shadow.Offset)
	assert.Equal(t, 0.8, *composite.Opacity)

	title := muts["titulo_principal"]
	assert.Equal(t, render.Stroke{Width: 2, Color: tier.RGBA{R: 1, G: 1, B: 1, A: 0.8}}, *title.Stroke)
	assert.InDelta(t, 48, *title.FontSize, 0.001)
	assert.Equal(t, 2.0, *title.Rotation)

	sub := muts["subtitulo"]
	assert.Nil(t, sub.Stroke)
	assert.Equal(t, -3.5, *sub.Rotation)
	assert.InDelta(t, 24, *sub.FontSize, 0.001)

	price := muts["preco"]
	assert.Equal(t, priceGlow, *price.Stroke)
	assert.InDelta(t, 26.4, *price.FontSize, 0.001)

	cta := muts["botao_cta"]
	require.NotNil(t, cta.Shadow)
	assert.Equal(t, render.Point{X: 4, Y: 4}, cta.Shadow.Blur)
	assert.Equal(t, tier.RGBA{A: 0.4}, cta.Shadow.Color)
	assert.Nil(t, cta.Rotation)
}

func TestPlanBackgroundBlurAndDefaultRotation(t *testing.T) {
	regions := []render.Region{
		{Name: "fundo", Kind: render.KindShape},
		textRegion("subtitulo", 100, 200),
	}

	muts := byRegion(newMapper(t).Plan("template_medio_feed", Input{
		Bundle:  suggestion.Bundle{Tier: tier.Mid, Effects: &suggestion.Effects{BackgroundOpacity: 1}},
		Regions: regions,
	}))
	require.NotNil(t, muts["fundo"].Blur)
	assert.Equal(t, defaultBackgroundBlur, *muts["fundo"].Blur)
	require.NotNil(t, muts["subtitulo"].Rotation)
	assert.Equal(t, -3.5, *muts["subtitulo"].Rotation)

	plain := byRegion(newMapper(t).Plan("template_medio_feed", Input{
		Bundle:  suggestion.Bundle{Tier: tier.Mid},
		Regions: regions,
	}))
	_, ok := plain["fundo"]
	assert.False(t, ok, "no effects leaves the background untouched")
	assert.Equal(t, -3.5, *plain["subtitulo"].Rotation)

	explicit := byRegion(newMapper(t).Plan("template_medio_feed", Input{
		Bundle: suggestion.Bundle{
			Tier:    tier.Mid,
			Effects: &suggestion.Effects{Rotation: map[string]float64{"title": 4}},
		},
		Regions: regions,
	}))
	assert.Nil(t, explicit["subtitulo"].Rotation, "an explicit map replaces the default")
}

func TestPlanImages(t *testing.T) {
	regions := []render.Region{
		{Name: "imagem_produto", Kind: render.KindImage},
		{Name: "imagem_secundaria", Kind: render.KindImage},
		{Name: "imagem_terceira", Kind: render.KindImage},
		{Name: "logo_empresa", Kind: render.KindImage},
	}
	m := newMapper(t)

	cycled := byRegion(m.Plan("template_medio_feed", Input{
		Bundle:  suggestion.Bundle{Tier: tier.Mid},
		Product: suggestion.ProductInfo{Images: []string{"a", "b"}, Logo: "logo"},
		Regions: regions,
	}))
	assert.Equal(t, "a", *cycled["imagem_produto"].Image)
	assert.Equal(t, "b", *cycled["imagem_secundaria"].Image)
	assert.Equal(t, "a", *cycled["imagem_terceira"].Image)
	assert.Equal(t, "logo", *cycled["logo_empresa"].Image)

	pinned := byRegion(m.Plan("template_medio_feed", Input{
		Bundle:      suggestion.Bundle{Tier: tier.Mid},
		Product:     suggestion.ProductInfo{Images: []string{"a", "b"}},
		Regions:     regions,
		PinnedImage: "pin",
	}))
	assert.Equal(t, "pin", *pinned["imagem_produto"].Image)
	assert.Equal(t, "pin", *pinned["imagem_secundaria"].Image)
	_, ok := pinned["logo_empresa"]
	assert.False(t, ok)
}

func TestInferRole(t *testing.T) {
	tests := map[string]templates.Role{
		"subtitulo_secundario": templates.RoleSubtitle,
		"Título Grande":        templates.RoleTitle,
		"valor_total":          templates.RolePrice,
		"botao_cta_fundo":      templates.RoleCTA,
		"logo_rodape":          templates.RoleLogo,
		"foto_fachada":         templates.RoleImage,
		"endereco":             templates.RoleLocation,
		"decoracao":            "",
	}
	for name, want := range tests {
		assert.Equal(t, want, inferRole(name), name)
	}
}

func TestPlanSkipsUnrecognisedShapes(t *testing.T) {
	muts := newMapper(t).Plan("template_medio_feed", Input{
		Bundle:  suggestion.Bundle{Tier: tier.Mid},
		Regions: []render.Region{{Name: "decoracao", Kind: render.KindShape}},
	})
	assert.Empty(t, muts)
}
