package templates

import (
	"fmt"
	"strings"

	"campaign-backend/internal/tier"
)

// Format is the placement a template is designed for.
type Format string

const (
	Feed  Format = "feed"
	Story Format = "story"
)

// Size returns the canvas size in pixels.
func (f Format) Size() (width, height int) {
	if f == Story {
		return 1080, 1920
	}
	return 1080, 1080
}

// Role is a logical placement independent of a template's region naming.
type Role string

const (
	RoleTitle       Role = "title"
	RoleSubtitle    Role = "subtitle"
	RolePrice       Role = "price"
	RoleCTA         Role = "cta"
	RoleImage       Role = "image"
	RoleLogo        Role = "logo"
	RoleLocation    Role = "location"
	RoleDescription Role = "description"
)

// IsImage reports whether the role belongs to the image family (image, image_2, ...).
func (r Role) IsImage() bool { return strings.HasPrefix(string(r), string(RoleImage)) }

// IsLogo reports whether the role belongs to the logo family.
func (r Role) IsLogo() bool { return strings.HasPrefix(string(r), string(RoleLogo)) }

// Descriptor is the static definition of one template.
type Descriptor struct {
	Name     string          `json:"name"`
	Tier     tier.Tier       `json:"profile"`
	Format   Format          `json:"format"`
	Resource string          `json:"resource"`
	Roles    map[Role]string `json:"roles"`
}

// Physical returns the region name mapped to role.
func (d Descriptor) Physical(role Role) (string, bool) {
	name, ok := d.Roles[role]
	return name, ok && name != ""
}

// Inverse builds the physical -> logical lookup.
func (d Descriptor) Inverse() map[string]Role {
	out := make(map[string]Role, len(d.Roles))
	for role, name := range d.Roles {
		if name != "" {
			out[name] = role
		}
	}
	return out
}

// Name builds the catalog name for a tier and format.
func Name(t tier.Tier, f Format) string {
	return fmt.Sprintf("template_%s_%s", t, f)
}

// ResourceName builds the backing file name for a tier and format.
func ResourceName(t tier.Tier, f Format) string {
	return fmt.Sprintf("%s_padrao_%s.psd", t, f)
}

// DefaultRoles is the region naming shared by the catalog templates.
func DefaultRoles() map[Role]string {
	return map[Role]string{
		RoleTitle:       "titulo_principal",
		RoleSubtitle:    "subtitulo",
		RolePrice:       "preco",
		RoleCTA:         "botao_cta",
		RoleImage:       "imagem_produto",
		RoleLogo:        "logo_empresa",
		RoleLocation:    "localizacao",
		RoleDescription: "descricao",
	}
}

// Catalog returns the six built-in templates, feed before story for each tier.
func Catalog() []Descriptor {
	out := make([]Descriptor, 0, len(tier.All)*2)
	for _, t := range tier.All {
		for _, f := range []Format{Feed, Story} {
			out = append(out, Descriptor{
				Name:     Name(t, f),
				Tier:     t,
				Format:   f,
				Resource: ResourceName(t, f),
				Roles:    DefaultRoles(),
			})
		}
	}
	return out
}
