package main

// Render a sample listing with the in-process canvas engine:
//   go run ./cmd/renderdemo -out ./out/demo -profile alto

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"campaign-backend/internal/campaign"
	"campaign-backend/internal/classifier"
	"campaign-backend/internal/regions"
	"campaign-backend/internal/render/canvas"
	"campaign-backend/internal/shared/storage/object/local"
	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/templates"
	"campaign-backend/internal/tier"
)

func main() {
	outDir := flag.String("out", "./out/demo", "output directory for templates and renders")
	profile := flag.String("profile", "", "force a profile (baixo, medio, alto); empty uses the local classifier")
	flag.Parse()

	var forced *tier.Tier
	if *profile != "" {
		t, err := tier.Parse(*profile)
		if err != nil {
			exitErr(err.Error())
		}
		forced = &t
	}

	registry := templates.NewDefault(filepath.Join(*outDir, "templates"))
	if _, err := registry.Bootstrap(); err != nil {
		exitErr(fmt.Sprintf("bootstrap templates: %v", err))
	}

	svc := &campaign.Service{
		Resolver:      classifier.New(nil, registry, classifier.Options{MaxAttempts: 1, BaseDelay: time.Millisecond}),
		Templates:     registry,
		Planner:       regions.NewMapper(registry),
		Engine:        canvas.New(canvas.Options{}),
		Store:         local.New(*outDir),
		Repo:          campaign.NewMemoryRepo(),
		OutputPrefix:  "renders",
		RenderTimeout: 30 * time.Second,
		Concurrency:   2,
	}

	gen := svc.Generate(context.Background(), sampleListing(), forced)

	summary, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("encode summary: %v", err))
	}
	if err := os.WriteFile(filepath.Join(*outDir, "summary.json"), summary, 0o644); err != nil {
		exitErr(fmt.Sprintf("write summary: %v", err))
	}

	for _, r := range gen.Results {
		if r.Success {
			fmt.Printf("OK: %s -> %s\n", r.Template, filepath.Join(*outDir, r.OutputPath))
			continue
		}
		fmt.Printf("FAIL: %s: %s\n", r.Template, r.Error)
	}
	if gen.Succeeded() == 0 {
		os.Exit(1)
	}
}

func sampleListing() suggestion.ProductInfo {
	return suggestion.ProductInfo{
		Description:    "Cobertura duplex com piscina privativa e vista para o mar",
		TargetAudience: "executivos e investidores",
		Location:       "Balneário Camboriú, SC",
		Budget:         "R$ 1500/dia",
		Duration:       "30 dias",
	}
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
