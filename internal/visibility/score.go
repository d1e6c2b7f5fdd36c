package visibility

import (
	"math"
	"strings"

	"github.com/azure/brand-visibility-bot/internal/models"
)

// lowestScore is what any mention ranked fifth or later is worth
const lowestScore = 0.1

// ScoreForRank maps a brand's rank within one response to a score in [0,1].
// A nil rank means the brand was not mentioned.
func ScoreForRank(rank *int) float64 {
	if rank == nil || *rank < 1 {
		return 0
	}

	switch *rank {
	case 1:
		return 1.0
	case 2:
		return 0.75
	case 3:
		return 0.5
	case 4:
		return 0.25
	default:
		return lowestScore
	}
}

// QueryScore is the score brand earned in one answered query. Mention records
// that say "mentioned" without a rank predate ranking and score as the lowest
// bucket.
func QueryScore(query models.QueryResult, brand string) float64 {
	for _, mention := range query.BrandMentions {
		if !strings.EqualFold(mention.Name, brand) {
			continue
		}
		if !mention.Mentioned {
			return 0
		}
		if mention.BrandPosition == nil {
			return lowestScore
		}
		return ScoreForRank(mention.BrandPosition)
	}
	return 0
}

// Aggregate averages brand's query scores over every query in the list and
// returns the visibility percentage rounded to one decimal. Queries where the
// brand is absent still count in the denominator.
func Aggregate(queries []models.QueryResult, brand string) float64 {
	return Round1(percent(queries, brand))
}

func percent(queries []models.QueryResult, brand string) float64 {
	if len(queries) == 0 {
		return 0
	}

	total := 0.0
	for _, query := range queries {
		total += QueryScore(query, brand)
	}

	return total / float64(len(queries)) * 100
}

// TopicScores returns brand's visibility percentage for every topic in a run
func TopicScores(result *models.AnalysisResult, brand string) map[string]float64 {
	scores := make(map[string]float64)
	if result == nil {
		return scores
	}
	for key, topic := range result.Results {
		scores[key] = Aggregate(topic.Queries, brand)
	}
	return scores
}

// TopicScore returns brand's visibility percentage for one topic of a run, 0
// when the run has no such topic.
func TopicScore(result *models.AnalysisResult, topicKey, brand string) float64 {
	if result == nil {
		return 0
	}
	topic, ok := result.Results[topicKey]
	if !ok {
		return 0
	}
	return Aggregate(topic.Queries, brand)
}

// OverallScore averages brand's topic percentages over every topic of a run
// that has at least one query. Topics where the brand scored 0 are part of the
// average.
func OverallScore(result *models.AnalysisResult, brand string) float64 {
	if result == nil {
		return 0
	}

	sum, topics := 0.0, 0
	for _, topic := range result.Results {
		if len(topic.Queries) == 0 {
			continue
		}
		sum += percent(topic.Queries, brand)
		topics++
	}

	if topics == 0 {
		return 0
	}
	return Round1(sum / float64(topics))
}

// BrandScores returns the overall score of every brand for a run
func BrandScores(result *models.AnalysisResult, brands []string) map[string]float64 {
	scores := make(map[string]float64, len(brands))
	for _, brand := range brands {
		scores[brand] = OverallScore(result, brand)
	}
	return scores
}

// Round1 rounds to one decimal place and maps NaN and infinities to 0
func Round1(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	rounded := math.Round(value*10) / 10
	if math.IsNaN(rounded) || math.IsInf(rounded, 0) {
		return 0
	}
	return rounded
}
