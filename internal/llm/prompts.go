package llm

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"campaign-backend/internal/suggestion"
)

var (
	//go:embed prompts/advisory_system.txt
	advisorySystem string
	//go:embed prompts/advisory_user.txt
	advisoryUser string
	//go:embed prompts/chat_system.txt
	chatSystem string
)

const notInformed = "Não informado"

// AdvisorySystemPrompt returns the system message for advisory calls.
func AdvisorySystemPrompt() string { return advisorySystem }

// ChatSystemPrompt returns the system message for conversational replies.
func ChatSystemPrompt() string { return chatSystem }

// AdvisoryPrompt renders the user message describing a listing.
func AdvisoryPrompt(p suggestion.ProductInfo) string {
	r := strings.NewReplacer(
		"{{DESCRIPTION}}", orNotInformed(p.Description),
		"{{AUDIENCE}}", orNotInformed(p.TargetAudience),
		"{{LOCATION}}", orNotInformed(p.Location),
		"{{BUDGET}}", orNotInformed(p.Budget),
		"{{DURATION}}", orNotInformed(p.Duration),
		"{{IMAGE_COUNT}}", strconv.Itoa(len(p.Images)),
	)
	return r.Replace(advisoryUser)
}

// ChatText renders the text part of a conversational turn. Images are sent
// separately by the provider client.
func ChatText(in ReplyInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mensagem do usuário: %s", in.Message)
	if p := in.Product; p != nil {
		b.WriteString("\n\nInformações do produto:")
		writeField(&b, "Descrição", p.Description)
		writeField(&b, "Público-alvo", p.TargetAudience)
		writeField(&b, "Localização", p.Location)
		writeField(&b, "Orçamento", p.Budget)
		writeField(&b, "Duração", p.Duration)
	}
	if n := len(in.Images); n > 0 {
		fmt.Fprintf(&b, "\n\nO usuário enviou %d imagem(ns) do empreendimento. Analise-as para criar um layout profissional.", n)
	}
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "\n%s: %s", label, value)
}

func orNotInformed(s string) string {
	if strings.TrimSpace(s) == "" {
		return notInformed
	}
	return s
}
