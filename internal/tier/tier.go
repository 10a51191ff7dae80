package tier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalid is returned when a value is not one of the three market tiers.
var ErrInvalid = errors.New("invalid tier")

// Tier is the economic classification of a listing.
type Tier int

const (
	Low Tier = iota + 1
	Mid
	High
)

// All lists the tiers in ascending order.
var All = []Tier{Low, Mid, High}

// Parse accepts the wire values (baixo, medio, alto) and the English aliases.
func Parse(raw string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "baixo", "low":
		return Low, nil
	case "medio", "médio", "mid", "medium":
		return Mid, nil
	case "alto", "high":
		return High, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
}

// Valid reports whether t is one of the enum values.
func (t Tier) Valid() bool {
	switch t {
	case Low, Mid, High:
		return true
	default:
		return false
	}
}

// String returns the wire value used in template names and API payloads.
func (t Tier) String() string {
	switch t {
	case Low:
		return "baixo"
	case Mid:
		return "medio"
	case High:
		return "alto"
	default:
		return "invalid"
	}
}

// Label is the upper-case form used in generated copy ("MEDIO PADRÃO").
// Casers are stateful, so one is built per call.
func (t Tier) Label() string {
	return cases.Upper(language.BrazilianPortuguese).String(t.String())
}

func (t Tier) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrInvalid
	}
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, string(data))
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
