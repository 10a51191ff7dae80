package suggestion

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ProductInfo is the user-supplied description of a listing.
type ProductInfo struct {
	Description    string   `json:"description"`
	TargetAudience string   `json:"target_audience"`
	Location       string   `json:"location"`
	Budget         string   `json:"budget"`
	Duration       string   `json:"duration"`
	Images         []string `json:"images,omitempty"`
	Logo           string   `json:"logo,omitempty"`
}

// HasBasicInfo reports whether any of the fields that justify an analysis is set.
func (p ProductInfo) HasBasicInfo() bool {
	return strings.TrimSpace(p.Description) != "" ||
		strings.TrimSpace(p.TargetAudience) != "" ||
		strings.TrimSpace(p.Budget) != "" ||
		strings.TrimSpace(p.Location) != ""
}

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips markup from free text typed by the user.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// Sanitized returns a copy with markup removed from the free-text fields.
// Image and logo references are left untouched.
func (p ProductInfo) Sanitized() ProductInfo {
	out := p
	out.Description = SanitizeText(p.Description)
	out.TargetAudience = SanitizeText(p.TargetAudience)
	out.Location = SanitizeText(p.Location)
	out.Budget = SanitizeText(p.Budget)
	out.Duration = SanitizeText(p.Duration)
	if len(p.Images) > 0 {
		out.Images = append([]string(nil), p.Images...)
	}
	return out
}
