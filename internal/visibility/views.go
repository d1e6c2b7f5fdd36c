package visibility

import (
	"sort"
	"time"

	"github.com/azure/brand-visibility-bot/internal/models"
)

// Chronological returns the history sorted oldest first without touching the input
func Chronological(history []models.AnalysisResult) []models.AnalysisResult {
	sorted := make([]models.AnalysisResult, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// Latest returns the most recent run of the history, nil for an empty history
func Latest(history []models.AnalysisResult) *models.AnalysisResult {
	var latest *models.AnalysisResult
	for i := range history {
		if latest == nil || history[i].Timestamp.After(latest.Timestamp) {
			latest = &history[i]
		}
	}
	return latest
}

// Snapshots scores every run of the history with score
func Snapshots(history []models.AnalysisResult, score func(*models.AnalysisResult) float64) []Snapshot {
	snapshots := make([]Snapshot, 0, len(history))
	for i := range history {
		snapshots = append(snapshots, Snapshot{
			Timestamp: history[i].Timestamp,
			Score:     score(&history[i]),
		})
	}
	return snapshots
}

// Series builds one overall-score time series per brand, oldest point first
func Series(history []models.AnalysisResult, brands []string) []models.BrandSeries {
	sorted := Chronological(history)

	series := make([]models.BrandSeries, 0, len(brands))
	for _, brand := range brands {
		points := make([]models.SeriesPoint, 0, len(sorted))
		for i := range sorted {
			points = append(points, models.SeriesPoint{
				Timestamp: sorted[i].Timestamp,
				Score:     OverallScore(&sorted[i], brand),
			})
		}
		series = append(series, models.BrandSeries{Brand: brand, Points: points})
	}

	return series
}

// CompareBrand compares brand's overall score across the history
func CompareBrand(history []models.AnalysisResult, brand string, now time.Time) Comparison {
	return Compare(Snapshots(history, func(r *models.AnalysisResult) float64 {
		return OverallScore(r, brand)
	}), now)
}

// CompareTopic compares brand's score within one topic across the history
func CompareTopic(history []models.AnalysisResult, topicKey, brand string, now time.Time) Comparison {
	return Compare(Snapshots(history, func(r *models.AnalysisResult) float64 {
		return TopicScore(r, topicKey, brand)
	}), now)
}

// Summarize builds the dashboard card of a project from its run history
func Summarize(project *models.Project, history []models.AnalysisResult, now time.Time) models.ProjectSummary {
	summary := models.ProjectSummary{
		ID:    project.ID,
		Name:  project.Name,
		Brand: project.Brand,
	}

	latest := Latest(history)
	if latest == nil {
		return summary
	}

	timestamp := latest.Timestamp
	summary.LastAnalysis = &timestamp
	summary.VisibilityScore = OverallScore(latest, project.Brand)
	summary.Change = CompareBrand(history, project.Brand, now).Delta()

	return summary
}

// Monitor builds the monitoring view of a project: per-brand scores of the
// latest run, one card per configured topic and a time series per brand.
func Monitor(project *models.Project, topics []models.Topic, history []models.AnalysisResult, now time.Time) *models.Monitoring {
	brands := project.AllBrands()
	latest := Latest(history)

	view := &models.Monitoring{
		Project:     project,
		BrandScores: BrandScores(latest, brands),
		Topics:      make([]models.TopicCard, 0, len(topics)),
		Series:      Series(history, brands),
		Latest:      latest,
	}

	if latest != nil {
		timestamp := latest.Timestamp
		view.Timestamp = &timestamp
		view.VisibilityScore = OverallScore(latest, project.Brand)
		view.Change = CompareBrand(history, project.Brand, now).Delta()
	}

	for _, topic := range topics {
		key := topic.Key()
		card := models.TopicCard{
			ID:         key,
			Name:       topic.Name,
			Visibility: make(map[string]float64, len(brands)),
			Score:      TopicScore(latest, key, project.Brand),
			Change:     CompareTopic(history, key, project.Brand, now).Delta(),
		}
		for _, brand := range brands {
			card.Visibility[brand] = TopicScore(latest, key, brand)
		}
		view.Topics = append(view.Topics, card)
	}

	return view
}
