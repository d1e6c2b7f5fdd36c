package models

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// Project is the aggregate root: one primary brand plus its competitors
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Competitors []string  `json:"competitors"`
	Brands      []string  `json:"brands"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AllBrands returns the primary brand followed by its competitors, dropping
// blanks and case-insensitive duplicates while keeping the first spelling seen.
func (p *Project) AllBrands() []string {
	return NormalizeBrands(p.Brand, p.Competitors)
}

// NormalizeBrands builds the tracked brand list for a primary brand and its competitors
func NormalizeBrands(primary string, competitors []string) []string {
	seen := make(map[string]bool)
	var brands []string

	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		brands = append(brands, name)
	}

	add(primary)
	for _, competitor := range competitors {
		add(competitor)
	}

	return brands
}

// Topic groups the natural-language queries of a project
type Topic struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Queries   []string  `json:"queries"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key is the identifier the topic is filed under inside analysis results
func (t *Topic) Key() string {
	return TopicKey(t.Name)
}

// TopicKey turns a topic name into its results key ("Running Shoes" -> "running-shoes")
func TopicKey(name string) string {
	return slug.Make(name)
}

// BrandMention is the detection result for one brand in one model response
type BrandMention struct {
	Name          string `json:"name"`
	Mentioned     bool   `json:"mentioned"`
	Count         int    `json:"count"`
	Positions     []int  `json:"positions"`
	BrandPosition *int   `json:"brandPosition"`
}

// QueryResult is one query, the model's answer and the mentions found in it
type QueryResult struct {
	Query         string         `json:"query"`
	Response      string         `json:"response"`
	BrandMentions []BrandMention `json:"brandMentions"`
}

// TopicResult holds the answered queries of one topic in a run
type TopicResult struct {
	Queries []QueryResult `json:"queries"`
}

// AnalysisResult is one committed run of a project's query battery
type AnalysisResult struct {
	ID        string                 `json:"id"`
	ProjectID string                 `json:"project_id"`
	Results   map[string]TopicResult `json:"results"`
	Data      map[string]int         `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// TotalQueries counts the answered queries across every topic
func (r *AnalysisResult) TotalQueries() int {
	total := 0
	for _, topic := range r.Results {
		total += len(topic.Queries)
	}
	return total
}

// MentionCounts sums mention counts per brand over every query. Only brands that
// were mentioned at least once appear in the map.
func MentionCounts(results map[string]TopicResult) map[string]int {
	counts := make(map[string]int)
	for _, topic := range results {
		for _, query := range topic.Queries {
			for _, mention := range query.BrandMentions {
				if !mention.Mentioned {
					continue
				}
				count := mention.Count
				if count == 0 {
					count = 1
				}
				counts[mention.Name] += count
			}
		}
	}
	return counts
}

// Delta is a score change against an earlier run; nil values mean there was no run to compare with
type Delta struct {
	Daily  *float64 `json:"daily"`
	Weekly *float64 `json:"weekly"`
}

// ProjectSummary is the dashboard card of one project
type ProjectSummary struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Brand           string     `json:"brand"`
	VisibilityScore float64    `json:"visibilityScore"`
	Change          Delta      `json:"change"`
	LastAnalysis    *time.Time `json:"lastAnalysis"`
}

// SeriesPoint is one sample of a visibility time series
type SeriesPoint struct {
	Timestamp time.Time `json:"x"`
	Score     float64   `json:"y"`
}

// BrandSeries is the visibility history of one brand
type BrandSeries struct {
	Brand  string        `json:"label"`
	Points []SeriesPoint `json:"data"`
}

// TopicCard is the per-topic visibility view of the monitoring page
type TopicCard struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Visibility map[string]float64 `json:"visibility"`
	Score      float64            `json:"score"`
	Change     Delta              `json:"change"`
}

// Monitoring is everything the monitoring page renders for a project
type Monitoring struct {
	Project         *Project           `json:"project"`
	VisibilityScore float64            `json:"visibilityScore"`
	BrandScores     map[string]float64 `json:"brandScores"`
	Change          Delta              `json:"change"`
	Topics          []TopicCard        `json:"topics"`
	Series          []BrandSeries      `json:"series"`
	Latest          *AnalysisResult    `json:"latest"`
	Timestamp       *time.Time         `json:"timestamp"`
}

// Report is the visibility report sent after an analysis run
type Report struct {
	GeneratedAt   time.Time          `json:"generated_at"`
	Project       string             `json:"project"`
	Brand         string             `json:"brand"`
	Period        string             `json:"period"`
	TotalQueries  int                `json:"total_queries"`
	FailedQueries int                `json:"failed_queries"`
	Visibility    float64            `json:"visibility"`
	Change        Delta              `json:"change"`
	BrandScores   map[string]float64 `json:"brand_scores"`
	TopicScores   map[string]float64 `json:"topic_scores"`
}

// Alert represents an urgent notification
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "critical", "urgent", "info"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Report    *Report   `json:"report,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
