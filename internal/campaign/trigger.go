package campaign

import (
	"campaign-backend/internal/shared/telemetry"
	"campaign-backend/internal/shared/util"
	"campaign-backend/internal/suggestion"
)

var intentKeywords = []string{"gerar", "criar", "campanha", "anúncio", "template", "perfil", "análise", "gere", "monte"}

// ShouldAnalyze decides whether a chat turn runs classification and
// rendering, or only gets a conversational reply.
func ShouldAnalyze(req ChatRequest) bool {
	switch {
	case req.Product != nil && req.Product.HasBasicInfo():
		telemetry.Info("campaign.analysis_triggered", map[string]any{"reason": "product_info"})
		return true
	case util.ContainsAny(req.Message, intentKeywords):
		telemetry.Info("campaign.analysis_triggered", map[string]any{"reason": "intent_keyword"})
		return true
	case len(req.Images) > 0:
		telemetry.Info("campaign.analysis_triggered", map[string]any{"reason": "images"})
		return true
	}
	telemetry.Info("campaign.analysis_skipped", nil)
	return false
}

// productFor returns the listing to analyze for a chat turn. Without product
// info the message itself becomes the description.
func productFor(req ChatRequest) suggestion.ProductInfo {
	if req.Product != nil {
		p := *req.Product
		if len(p.Images) == 0 {
			p.Images = req.Images
		}
		return p
	}
	return suggestion.ProductInfo{
		Description:    req.Message,
		TargetAudience: "Público em geral",
		Location:       "Não especificado",
		Budget:         "R$ 500/dia",
		Duration:       "15 dias",
		Images:         req.Images,
	}
}
