package util

import "testing"

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Análise":       "analise",
		"  ANÚNCIO ":    "anuncio",
		"Alto Padrão":   "alto padrao",
		"acessível":     "acessivel",
		"already plain": "already plain",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContainsAny(t *testing.T) {
	if !ContainsAny("Quero uma ANALISE do imóvel", []string{"análise"}) {
		t.Fatalf("expected accent-insensitive match")
	}
	if ContainsAny("bom dia", []string{"gerar", "campanha"}) {
		t.Fatalf("expected no match")
	}
	if ContainsAny("", []string{""}) {
		t.Fatalf("empty text never matches")
	}
}
