package campaign

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"campaign-backend/internal/suggestion"
)

// enrichReply appends the analysis summary and generation outcome to the
// assistant reply.
func enrichReply(reply string, b suggestion.Bundle, results []Result) string {
	var ok []Result
	failed := 0
	for _, r := range results {
		if r.Success {
			ok = append(ok, r)
		} else {
			failed++
		}
	}

	var sb strings.Builder
	sb.WriteString(reply)
	fmt.Fprintf(&sb, "\n\n🎯 **Análise do Perfil:** %s padrão (%d%% de confiança)", b.Tier.Label(), b.Confidence)
	fmt.Fprintf(&sb, "\n📝 **Justificativa:** %s", b.Reasoning)

	if len(ok) > 0 {
		fmt.Fprintf(&sb, "\n\n✅ **Imagens Geradas:** %d peça(s) criada(s) com sucesso", len(ok))
		title := cases.Title(language.BrazilianPortuguese)
		for i, r := range ok {
			fmt.Fprintf(&sb, "\n  • %s %d", title.String(r.image().Type), i+1)
		}
		sb.WriteString("\n\nAs imagens estão prontas para download e uso em suas campanhas! 🚀")
	}
	if failed > 0 {
		fmt.Fprintf(&sb, "\n\n⚠️ **Atenção:** %d imagem(ns) não pôde(ram) ser gerada(s).", failed)
	}
	if len(b.RecommendedTemplates) == 0 {
		fmt.Fprintf(&sb, "\n\n📋 **Recomendação:** Para gerar imagens personalizadas, certifique-se de que os templates PSD estão disponíveis para o perfil %s.", b.Tier)
	}
	return sb.String()
}
