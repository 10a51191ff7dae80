package campaign

import (
	"time"

	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/templates"
	"campaign-backend/internal/tier"
)

// Run is the stored record of one generation.
type Run struct {
	ID         string            `json:"id"`
	Tier       tier.Tier         `json:"profile"`
	Confidence int               `json:"confidence"`
	Source     suggestion.Source `json:"source"`
	Requested  int               `json:"requested"`
	Succeeded  int               `json:"succeeded"`
	Outputs    []string          `json:"outputs"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Result is the outcome of rendering one template.
type Result struct {
	Success    bool             `json:"success"`
	Template   string           `json:"template,omitempty"`
	Format     templates.Format `json:"format,omitempty"`
	OutputPath string           `json:"outputPath,omitempty"`
	WebPath    string           `json:"webPath,omitempty"`
	Message    string           `json:"message,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// GeneratedImage is the chat-facing view of a successful Result.
type GeneratedImage struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Format   string `json:"format"`
	Template string `json:"template"`
}

func (r Result) image() GeneratedImage {
	img := GeneratedImage{URL: r.WebPath, Type: string(templates.Feed), Format: "square", Template: r.Template}
	if img.URL == "" {
		img.URL = r.OutputPath
	}
	if r.Format == templates.Story {
		img.Type = string(templates.Story)
		img.Format = "portrait"
	}
	return img
}

// ChatRequest is one user turn.
type ChatRequest struct {
	Message string
	Images  []string
	Product *suggestion.ProductInfo
}

// ChatResponse is the assistant turn.
type ChatResponse struct {
	Message         string             `json:"message"`
	Analysis        *suggestion.Bundle `json:"analysis,omitempty"`
	GeneratedImages []GeneratedImage   `json:"generatedImages,omitempty"`
}

// Succeeded reports whether the turn produced anything usable.
func (r ChatResponse) Succeeded() bool {
	return r.Message != "" || r.Analysis != nil || len(r.GeneratedImages) > 0
}

// TemplateStatus summarizes the catalog for operators.
type TemplateStatus struct {
	Available int              `json:"available"`
	Missing   int              `json:"missing"`
	Details   templates.Status `json:"details"`
}
