package visibility

import (
	"math"
	"testing"

	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int {
	return &v
}

func TestScoreForRank(t *testing.T) {
	tests := []struct {
		name     string
		rank     *int
		expected float64
	}{
		{name: "Not mentioned", rank: nil, expected: 0},
		{name: "First", rank: intPtr(1), expected: 1.0},
		{name: "Second", rank: intPtr(2), expected: 0.75},
		{name: "Third", rank: intPtr(3), expected: 0.5},
		{name: "Fourth", rank: intPtr(4), expected: 0.25},
		{name: "Fifth", rank: intPtr(5), expected: 0.1},
		{name: "Far down the list", rank: intPtr(42), expected: 0.1},
		{name: "Invalid rank", rank: intPtr(0), expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScoreForRank(tt.rank))
		})
	}
}

func TestScoreForRank_NonIncreasing(t *testing.T) {
	previous := ScoreForRank(intPtr(1))
	for rank := 2; rank <= 10; rank++ {
		score := ScoreForRank(intPtr(rank))
		assert.LessOrEqual(t, score, previous, "rank %d", rank)
		previous = score
	}
	assert.LessOrEqual(t, ScoreForRank(nil), previous)
}

func queryWith(response string, brands ...string) models.QueryResult {
	return models.QueryResult{
		Query:         "best trail running shoes",
		Response:      response,
		BrandMentions: DetectMentions(response, brands),
	}
}

func TestAggregate(t *testing.T) {
	brands := []string{"Adidas", "Nike", "Salomon"}

	tests := []struct {
		name     string
		queries  []models.QueryResult
		brand    string
		expected float64
	}{
		{
			name:     "Single query second place",
			queries:  []models.QueryResult{queryWith("Nike is great but Adidas outlasts Salomon.", brands...)},
			brand:    "Adidas",
			expected: 75,
		},
		{
			name: "Unmentioned query counts in denominator",
			queries: []models.QueryResult{
				queryWith("Nike is great but Adidas outlasts Salomon.", brands...),
				queryWith("Try Hoka instead.", brands...),
			},
			brand:    "Adidas",
			expected: 37.5,
		},
		{
			name: "Never mentioned",
			queries: []models.QueryResult{
				queryWith("Try Hoka instead.", brands...),
				queryWith("Altra makes wide shoes.", brands...),
				queryWith("Brooks is comfortable.", brands...),
			},
			brand:    "Salomon",
			expected: 0,
		},
		{
			name:     "Brand matched case-insensitively",
			queries:  []models.QueryResult{queryWith("Nike is great but Adidas outlasts Salomon.", brands...)},
			brand:    "nike",
			expected: 100,
		},
		{
			name: "Rounded to one decimal",
			queries: []models.QueryResult{
				queryWith("Nike first.", brands...),
				queryWith("Nothing here.", brands...),
				queryWith("Nothing here either.", brands...),
			},
			brand:    "Nike",
			expected: 33.3,
		},
		{
			name:     "No queries",
			queries:  nil,
			brand:    "Nike",
			expected: 0,
		},
		{
			name: "Missing mention list",
			queries: []models.QueryResult{
				{Query: "q", Response: "Nike"},
			},
			brand:    "Nike",
			expected: 0,
		},
		{
			name: "Legacy mention without rank",
			queries: []models.QueryResult{
				{Query: "q", BrandMentions: []models.BrandMention{{Name: "Nike", Mentioned: true, Count: 1}}},
			},
			brand:    "Nike",
			expected: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Aggregate(tt.queries, tt.brand))
		})
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	queries := []models.QueryResult{
		queryWith("Salomon, Nike and Adidas all make trail shoes.", "Adidas", "Nike", "Salomon"),
		queryWith("Adidas is fine.", "Adidas", "Nike", "Salomon"),
	}

	first := Aggregate(queries, "Nike")
	second := Aggregate(queries, "Nike")
	assert.Equal(t, first, second)
	assert.Equal(t, 37.5, first)
}

func TestOverallScore(t *testing.T) {
	brands := []string{"Adidas", "Nike"}
	result := &models.AnalysisResult{
		Results: map[string]models.TopicResult{
			"trail-running": {Queries: []models.QueryResult{
				queryWith("Nike and then Adidas.", brands...),
			}},
			"road-running": {Queries: []models.QueryResult{
				queryWith("Hoka dominates road running.", brands...),
			}},
			"empty-topic": {Queries: nil},
		},
	}

	// 75 in one topic, 0 in the other; the zero topic counts and the empty one does not
	assert.Equal(t, 37.5, OverallScore(result, "Adidas"))
	assert.Equal(t, 50.0, OverallScore(result, "Nike"))
	assert.Equal(t, 0.0, OverallScore(nil, "Nike"))
	assert.Equal(t, 0.0, OverallScore(&models.AnalysisResult{}, "Nike"))

	topics := TopicScores(result, "Adidas")
	assert.Equal(t, 75.0, topics["trail-running"])
	assert.Equal(t, 0.0, topics["road-running"])
	assert.Equal(t, 0.0, topics["empty-topic"])

	assert.Equal(t, 75.0, TopicScore(result, "trail-running", "Adidas"))
	assert.Equal(t, 0.0, TopicScore(result, "missing", "Adidas"))

	scores := BrandScores(result, brands)
	assert.Equal(t, map[string]float64{"Adidas": 37.5, "Nike": 50}, scores)
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 33.3, Round1(100.0/3))
	assert.Equal(t, 66.7, Round1(200.0/3))
	assert.Equal(t, 0.0, Round1(math.NaN()))
	assert.Equal(t, 0.0, Round1(math.Inf(1)))
	assert.Equal(t, 0.0, Round1(math.Inf(-1)))
}
