package querygen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/azure/brand-visibility-bot/internal/llm"
	"github.com/azure/brand-visibility-bot/internal/visibility"
	"github.com/sirupsen/logrus"
)

// ErrInvalidInput is returned when the request lacks a brand or keywords
var ErrInvalidInput = errors.New("brand and at least one keyword are required")

const temperature = 0.8

var languages = map[string]string{
	"en": "English",
	"sv": "Swedish",
	"no": "Norwegian",
	"da": "Danish",
	"fi": "Finnish",
}

// Request describes the brands and keywords to generate queries for
type Request struct {
	Brand       string   `json:"brand"`
	Competitors []string `json:"competitors"`
	Keywords    []string `json:"keywords"`
	Language    string   `json:"language"`
}

// Service turns keywords into brand-neutral search queries
type Service struct {
	completer llm.CompleterInterface
	maxTokens int
}

// NewService creates a new query generator
func NewService(completer llm.CompleterInterface, maxTokens int) *Service {
	return &Service{completer: completer, maxTokens: maxTokens}
}

// LanguageName maps a language code to the name used in prompts; unknown codes fall back to English
func LanguageName(code string) string {
	if name, ok := languages[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return "English"
}

// Generate asks the model for queries per keyword. Queries that still name one
// of the brands are dropped.
func (s *Service) Generate(ctx context.Context, req Request) (map[string][]string, error) {
	brand := strings.TrimSpace(req.Brand)
	var keywords []string
	for _, keyword := range req.Keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	if brand == "" || len(keywords) == 0 {
		return nil, ErrInvalidInput
	}

	language := LanguageName(req.Language)
	resp, err := s.completer.Complete(ctx, llm.Request{
		SystemPrompt: systemPrompt(language),
		Prompt:       userPrompt(brand, req.Competitors, keywords, language),
		Temperature:  temperature,
		MaxTokens:    s.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate queries: %w", err)
	}

	var generated map[string][]string
	if err := json.Unmarshal([]byte(cleanJSONResponse(resp.Text)), &generated); err != nil {
		return nil, fmt.Errorf("failed to parse generated queries: %w", err)
	}

	brands := append([]string{brand}, req.Competitors...)
	queries := make(map[string][]string, len(generated))
	dropped := 0
	for keyword, candidates := range generated {
		kept := []string{}
		seen := make(map[string]bool)
		for _, query := range candidates {
			query = strings.TrimSpace(query)
			key := strings.ToLower(query)
			if query == "" || seen[key] {
				continue
			}
			if namesBrand(query, brands) {
				dropped++
				continue
			}
			seen[key] = true
			kept = append(kept, query)
		}
		queries[keyword] = kept
	}

	logrus.Infof("Generated queries for %d keywords in %s (%d dropped for naming a brand)", len(queries), language, dropped)
	return queries, nil
}

func namesBrand(query string, brands []string) bool {
	for _, brand := range brands {
		if len(visibility.ExtractMentions(query, brand)) > 0 {
			return true
		}
	}
	return false
}

func systemPrompt(language string) string {
	return fmt.Sprintf("You are a multilingual search behavior expert. Generate brand-neutral queries in %s "+
		"that will help discover where brands appear naturally in search results.", language)
}

func userPrompt(brand string, competitors, keywords []string, language string) string {
	var prompt strings.Builder

	fmt.Fprintf(&prompt, "Generate search queries that will help monitor market presence for %s", brand)
	if len(competitors) > 0 {
		fmt.Fprintf(&prompt, " and its competitors (%s)", strings.Join(competitors, ", "))
	}
	prompt.WriteString(".\nThe goal is to find where these brands appear naturally in search results, ")
	prompt.WriteString("so DO NOT include any brand names in the queries themselves.\n\n")
	fmt.Fprintf(&prompt, "Keywords: %s\n", strings.Join(keywords, ", "))
	fmt.Fprintf(&prompt, "Language: Generate all queries in %s\n\n", language)
	prompt.WriteString(`For each keyword, generate 8-10 detailed, brand-neutral queries that:
1. Address specific user problems and pain points
2. Compare features and capabilities
3. Ask about real-world performance and experiences
4. Seek technical specifications and details
5. Focus on specific use cases and scenarios
6. Question durability and reliability
7. Explore value for money

IMPORTANT RULES:
- Generate ALL queries in the specified language
- DO NOT include any brand names in the queries
- DO NOT mention competitors in the queries
- Focus on generic, problem-focused searches
- Use natural language patterns common in the specified language

Format the response as a JSON object where each keyword is a key and its value is an array of brand-neutral queries.`)

	return prompt.String()
}

// cleanJSONResponse strips code fences and any prose around the JSON object
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
