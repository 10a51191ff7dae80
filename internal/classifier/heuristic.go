package classifier

import (
	"regexp"
	"strconv"

	"campaign-backend/internal/shared/util"
	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/tier"
)

var (
	luxuryKeywords  = []string{"luxo", "premium", "alto padrão", "exclusivo", "sofisticado", "diferenciado"}
	popularKeywords = []string{"popular", "acessível", "primeira casa", "entrada facilitada", "financiamento"}
)

const (
	defaultBudget = 500

	reasonLuxury  = "Palavras-chave de luxo identificadas ou orçamento alto"
	reasonPopular = "Palavras-chave populares identificadas ou orçamento baixo"
	reasonDefault = "Análise baseada em heurísticas simples devido a erro no serviço de IA"
)

var firstInt = regexp.MustCompile(`\d+`)

// budgetValue returns the first integer in the budget text, or 500.
func budgetValue(budget string) int {
	m := firstInt.FindString(budget)
	if m == "" {
		return defaultBudget
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return defaultBudget
	}
	return v
}

type verdict struct {
	tier       tier.Tier
	confidence int
	reasoning  string
}

// classify applies the keyword and budget rules. Luxury signals win over
// popular ones.
func classify(p suggestion.ProductInfo, ceiling, floor int) verdict {
	text := p.Description + "\n" + p.TargetAudience
	budget := budgetValue(p.Budget)

	switch {
	case util.ContainsAny(text, luxuryKeywords) || budget > ceiling:
		return verdict{tier: tier.High, confidence: 70, reasoning: reasonLuxury}
	case util.ContainsAny(text, popularKeywords) || budget < floor:
		return verdict{tier: tier.Low, confidence: 70, reasoning: reasonPopular}
	default:
		return verdict{tier: tier.Mid, confidence: 60, reasoning: reasonDefault}
	}
}
