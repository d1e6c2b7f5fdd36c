package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/azure/brand-visibility-bot/internal/analysis"
	"github.com/azure/brand-visibility-bot/internal/config"
	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/azure/brand-visibility-bot/internal/notifications"
	"github.com/azure/brand-visibility-bot/internal/visibility"
)

// TestNotificationService outputs reports to terminal and files
type TestNotificationService struct{}

var _ notifications.NotificationInterface = (*TestNotificationService)(nil)

func (t *TestNotificationService) SendReport(report *models.Report) error {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("📊 VISIBILITY REPORT: %s (%s)\n", report.Project, report.Brand)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("📅 Period: %s\n", report.Period)
	fmt.Printf("🕒 Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("📈 Visibility: %.1f%%\n", report.Visibility)
	fmt.Printf("   Daily change:  %s\n", notifications.FormatChange(report.Change.Daily))
	fmt.Printf("   Weekly change: %s\n", notifications.FormatChange(report.Change.Weekly))
	fmt.Printf("💬 Queries answered: %d\n", report.TotalQueries)

	fmt.Println("\n🏷️  Brands:")
	printScores(report.BrandScores)

	fmt.Println("\n📍 Topics:")
	printScores(report.TopicScores)

	if err := t.saveReportToFile(report); err != nil {
		fmt.Printf("\n⚠️  Warning: Could not save to file: %v\n", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	return nil
}

func (t *TestNotificationService) SendAlert(alert *models.Alert) error {
	fmt.Println("\n🚨 ALERT")
	fmt.Printf("Type: %s\n", alert.Type)
	fmt.Printf("Message: %s\n", alert.Message)
	return nil
}

func (t *TestNotificationService) saveReportToFile(report *models.Report) error {
	dir := "test_output"
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	timestamp := report.GeneratedAt.Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("visibility_report_%s.json", timestamp))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}

	fmt.Printf("\n💾 Report saved to: %s\n", filename)
	return nil
}

func printScores(scores map[string]float64) {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] > scores[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		fmt.Printf("   • %-20s %5.1f%%\n", name+":", scores[name])
	}
}

// sampleRun answers every query of a topic with the same canned response
func sampleRun(brands []string, timestamp time.Time, responses map[string][]string) models.AnalysisResult {
	results := make(map[string]models.TopicResult, len(responses))
	for topic, answers := range responses {
		var queries []models.QueryResult
		for i, answer := range answers {
			queries = append(queries, models.QueryResult{
				Query:         fmt.Sprintf("%s question %d", topic, i+1),
				Response:      answer,
				BrandMentions: visibility.DetectMentions(answer, brands),
			})
		}
		results[models.TopicKey(topic)] = models.TopicResult{Queries: queries}
	}

	return models.AnalysisResult{
		ID:        timestamp.Format("20060102"),
		ProjectID: "sample",
		Results:   results,
		Data:      models.MentionCounts(results),
		Timestamp: timestamp,
	}
}

func main() {
	fmt.Println("🤖 Brand Visibility Bot - Test Report Generator")
	fmt.Println("===============================================")

	cfg := &config.Config{
		HistoryLimit:            30,
		VisibilityDropThreshold: 10,
	}

	project := &models.Project{
		ID:          "sample",
		Name:        "Trail Running",
		Brand:       "Salomon",
		Competitors: []string{"Hoka", "Nike", "Adidas"},
	}
	brands := project.AllBrands()

	now := time.Now()
	history := []models.AnalysisResult{
		sampleRun(brands, now.Add(-time.Hour), map[string][]string{
			"Trail Shoes": {
				"Hoka and Salomon lead the trail category, with Nike catching up.",
				"For technical terrain, Hoka is a popular choice.",
			},
			"Ultra Running": {
				"Many ultra runners pick Hoka for cushioning and Salomon for packs.",
			},
		}),
		sampleRun(brands, now.Add(-25*time.Hour), map[string][]string{
			"Trail Shoes": {
				"Salomon remains the reference for trail shoes, ahead of Hoka.",
				"Salomon Speedcross is a classic for muddy trails.",
			},
			"Ultra Running": {
				"Salomon vests are everywhere at ultra races.",
			},
		}),
		sampleRun(brands, now.Add(-7*24*time.Hour-2*time.Hour), map[string][]string{
			"Trail Shoes": {
				"Nike and Adidas have trail lines, but Salomon is the specialist.",
			},
			"Ultra Running": {
				"Hoka shoes are common in ultras.",
			},
		}),
	}

	notifier := &TestNotificationService{}
	service := analysis.NewService(cfg, nil, nil, nil, nil, notifier)

	fmt.Printf("\n📊 Generating report from %d sample runs...\n", len(history))

	report := service.BuildReport(project, history, now)

	if err := notifier.SendReport(report); err != nil {
		fmt.Printf("❌ Error sending report: %v\n", err)
		os.Exit(1)
	}
	if alert := service.DropAlert(report); alert != nil {
		notifier.SendAlert(alert)
	}

	fmt.Println("\n✅ Test report generation completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Check the 'test_output' directory for saved JSON report")
	fmt.Println("   • Run 'go test ./internal/... -v' for more detailed tests")
	fmt.Println("   • Configure DATABASE_URL and an LLM key, then run 'go run ./cmd/bot'")
}
