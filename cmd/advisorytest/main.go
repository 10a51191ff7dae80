package main

// Exercise the advisory prompt against the configured model:
//   go run ./cmd/advisorytest -description "Casa com piscina" -location "Curitiba" -budget "R$ 500/dia"

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"campaign-backend/internal/classifier"
	"campaign-backend/internal/llm"
	openai "campaign-backend/internal/llm/openai"
	"campaign-backend/internal/shared/config"
	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/templates"
)

func main() {
	cfg := config.Load()

	description := flag.String("description", "", "Listing description")
	audience := flag.String("audience", "", "Target audience")
	location := flag.String("location", "", "Location")
	budget := flag.String("budget", "", "Daily budget, e.g. R$ 800/dia")
	duration := flag.String("duration", "", "Campaign duration")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	raw := flag.Bool("raw", false, "Print the raw model reply before the resolved bundle")
	flag.Parse()

	product := suggestion.ProductInfo{
		Description:    *description,
		TargetAudience: *audience,
		Location:       *location,
		Budget:         *budget,
		Duration:       *duration,
	}
	if !product.HasBasicInfo() {
		exitErr("at least one of description, audience, location or budget is required")
	}

	var advisor llm.Advisor = llm.PlaceholderClient{}
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		client, err := openai.NewClient(cfg.OpenAIAPIKey, *model, openai.Options{
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.OpenAITimeout,
		})
		if err != nil {
			exitErr(err.Error())
		}
		advisor = client
	} else {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY not set; showing the local fallback")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *raw {
		reply, err := advisor.Suggest(ctx, product)
		if err != nil {
			fmt.Fprintf(os.Stderr, "advisory call failed: %v\n", err)
		} else {
			fmt.Println(reply)
		}
	}

	resolver := classifier.New(advisor, templates.NewDefault(cfg.TemplatesDir), classifier.Options{
		MaxAttempts:   cfg.AdvisoryMaxAttempts,
		BaseDelay:     cfg.AdvisoryBaseDelay,
		BudgetCeiling: cfg.BudgetCeiling,
		BudgetFloor:   cfg.BudgetFloor,
	})
	bundle := resolver.Resolve(ctx, product, nil)

	out, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("encode bundle: %v", err))
	}
	fmt.Println(string(out))
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
