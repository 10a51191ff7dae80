package regions

import (
	"campaign-backend/internal/shared/util"
	"campaign-backend/internal/templates"
)

var (
	backgroundWords = []string{"background", "fundo"}
	ctaWords        = []string{"cta", "botao", "button"}
	titleWords      = []string{"titulo", "title"}
	subtitleWords   = []string{"subtitulo", "subtitle"}
	priceWords      = []string{"preco", "price", "valor"}
	locationWords   = []string{"localizacao", "location", "endereco"}
)

// inference order matters: subtitle names also contain the title words.
var inference = []struct {
	role  templates.Role
	words []string
}{
	{templates.RoleSubtitle, subtitleWords},
	{templates.RoleTitle, titleWords},
	{templates.RolePrice, priceWords},
	{templates.RoleCTA, ctaWords},
	{templates.RoleLogo, []string{"logo"}},
	{templates.RoleImage, []string{"imagem", "image", "foto", "photo"}},
	{templates.RoleLocation, locationWords},
	{templates.RoleDescription, []string{"descricao", "description"}},
}

// inferRole guesses the logical role of a region the descriptor does not map.
func inferRole(name string) templates.Role {
	for _, rule := range inference {
		if util.ContainsAny(name, rule.words) {
			return rule.role
		}
	}
	return ""
}

// like reports whether the physical name or the logical role contains any of
// the words.
func like(name string, role templates.Role, words []string) bool {
	return util.ContainsAny(name, words) || util.ContainsAny(string(role), words)
}

func isTextRole(role templates.Role) bool {
	switch role {
	case templates.RoleTitle, templates.RoleSubtitle, templates.RoleCTA,
		templates.RolePrice, templates.RoleLocation, templates.RoleDescription:
		return true
	}
	return false
}

func isMainTitle(name string, role templates.Role) bool {
	if role == templates.RoleTitle {
		return true
	}
	return role == "" && like(name, role, titleWords) && !like(name, role, subtitleWords)
}

func isPrice(name string, role templates.Role) bool {
	return role == templates.RolePrice || like(name, role, priceWords)
}

// truncate keeps s within limit runes, ending in "..." when it had to cut.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}
