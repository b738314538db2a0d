package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nclex_prep_backend/internal/model"
)

func TestIncrementalAverage(t *testing.T) {
	tests := []struct {
		name     string
		oldAvg   float64
		n        int
		newScore float64
		want     float64
	}{
		{"first score becomes the average", 0, 1, 80, 80},
		{"second score averages evenly", 80, 2, 60, 70},
		{"third score weighted by count", 70, 3, 100, 80},
		{"zero count guards against division", 50, 0, 90, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, incrementalAverage(tt.oldAvg, tt.n, tt.newScore), 0.001)
		})
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		total   int64
		want    float64
	}{
		{"partial progress rounds", 333, 1000, 33},
		{"rounds half up", 125, 1000, 13},
		{"caps at 100 on repeated correct answers", 1500, 1000, 100},
		{"empty bank yields zero", 10, 0, 0},
		{"no correct answers yields zero", 0, 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, progressPercent(tt.correct, tt.total))
		})
	}
}

func TestClassifyPerformance(t *testing.T) {
	tests := []struct {
		accuracy float64
		want     model.PerformanceLevel
	}{
		{100, model.LevelMastery},
		{80, model.LevelMastery},
		{79.9, model.LevelProficient},
		{65, model.LevelProficient},
		{64.9, model.LevelDeveloping},
		{50, model.LevelDeveloping},
		{49.9, model.LevelWeak},
		{0, model.LevelWeak},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyPerformance(tt.accuracy), "accuracy %v", tt.accuracy)
	}
}

func TestNeedsRemediation(t *testing.T) {
	assert.True(t, needsRemediation(59.9, 5))
	assert.True(t, needsRemediation(0, 100))

	// Too few attempts: accuracy alone never flags.
	assert.False(t, needsRemediation(0, 4))
	assert.False(t, needsRemediation(60, 5))
	assert.False(t, needsRemediation(85, 50))
}

func TestApplyEnrollmentRollup(t *testing.T) {
	e := &model.Enrollment{}

	applyEnrollmentRollup(e, AttemptStats{
		Mode:           model.ModeTimed,
		TotalQuestions: 10,
		CorrectCount:   8,
		Score:          80,
	}, 100)

	assert.Equal(t, 10, e.QuestionsAttempted)
	assert.Equal(t, 8, e.QuestionsCorrect)
	assert.Equal(t, 1, e.TestsCompleted)
	assert.Equal(t, 1, e.TimedTestsCompleted)
	assert.Equal(t, 0, e.TutorTestsCompleted)
	assert.InDelta(t, 80, e.AverageScore, 0.001)
	assert.Equal(t, 80.0, e.HighestScore)
	assert.Equal(t, 80.0, e.LowestScore)
	assert.Equal(t, 8.0, e.Progress)

	applyEnrollmentRollup(e, AttemptStats{
		Mode:           model.ModeTutor,
		TotalQuestions: 10,
		CorrectCount:   4,
		Score:          40,
	}, 100)

	assert.Equal(t, 2, e.TestsCompleted)
	assert.Equal(t, 1, e.TutorTestsCompleted)
	assert.InDelta(t, 60, e.AverageScore, 0.001)
	assert.Equal(t, 80.0, e.HighestScore)
	assert.Equal(t, 40.0, e.LowestScore)
	assert.Equal(t, 12.0, e.Progress)
}

func TestApplyEnrollmentRollupLowestScoreZero(t *testing.T) {
	e := &model.Enrollment{}

	applyEnrollmentRollup(e, AttemptStats{Mode: model.ModeTutor, TotalQuestions: 5, Score: 0}, 50)
	assert.Equal(t, 0.0, e.LowestScore)

	applyEnrollmentRollup(e, AttemptStats{Mode: model.ModeTutor, TotalQuestions: 5, CorrectCount: 5, Score: 100}, 50)

	// A zero first score must survive as the lowest.
	assert.Equal(t, 0.0, e.LowestScore)
	assert.Equal(t, 100.0, e.HighestScore)
}

func TestAccuracyPercent(t *testing.T) {
	assert.Equal(t, 0.0, accuracyPercent(5, 0))
	assert.InDelta(t, 75, accuracyPercent(3, 4), 0.001)
	assert.InDelta(t, 100, accuracyPercent(7, 7), 0.001)
}
