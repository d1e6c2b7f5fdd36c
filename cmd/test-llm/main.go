package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/azure/brand-visibility-bot/internal/config"
	"github.com/azure/brand-visibility-bot/internal/llm"
	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/azure/brand-visibility-bot/internal/visibility"
	"github.com/joho/godotenv"
)

func main() {
	query := flag.String("query", "What are the best trail running shoes?", "query to send to the model")
	brands := flag.String("brands", "Salomon,Hoka,Nike", "comma separated brands to look for")
	flag.Parse()

	fmt.Println("🔍 Brand Visibility Bot - Language Model Connectivity Test")
	fmt.Println("==========================================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	completer, err := llm.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize language model: %v", err)
	}

	fmt.Printf("🔸 Asking %s... ", completer.GetName())
	if !completer.IsEnabled() {
		fmt.Println("⚠️  DISABLED (missing API key)")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LLMTimeout)
	defer cancel()

	start := time.Now()
	response, err := completer.Complete(ctx, llm.Request{
		SystemPrompt: "You are a helpful assistant.",
		Prompt:       *query,
		MaxTokens:    cfg.LLMMaxTokens,
		Temperature:  cfg.LLMTemperature,
	})
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}
	fmt.Printf("✅ SUCCESS (%s, %d characters)\n", time.Since(start).Round(time.Millisecond), len(response.Text))

	fmt.Println("\n📝 Response:")
	fmt.Println(response.Text)

	fmt.Println("\n🏷️  Mentions:")
	for _, mention := range visibility.DetectMentions(response.Text, models.NormalizeBrands("", strings.Split(*brands, ","))) {
		rank := "-"
		if mention.BrandPosition != nil {
			rank = fmt.Sprintf("#%d", *mention.BrandPosition)
		}
		fmt.Printf("   • %-15s %-4s %d mentions\n", mention.Name+":", rank, mention.Count)
	}
}
