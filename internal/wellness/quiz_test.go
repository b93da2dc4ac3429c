package wellness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenthub-backend/internal/models"
)

func responsesWithSum(n, sum int, skip int) map[int]int {
	r := make(map[int]int, n)
	for i := 0; i < n; i++ {
		r[i] = 0
	}
	for i := 0; i < n && sum > 0; i++ {
		if i == skip {
			continue
		}
		v := sum
		if v > MaxResponse {
			v = MaxResponse
		}
		r[i] = v
		sum -= v
	}
	return r
}

// 测试PHQ-9分档
func TestPHQ9Severity(t *testing.T) {
	tests := []struct {
		score      int
		severity   models.Severity
		escalation bool
	}{
		{3, models.SeverityMinimal, false},
		{8, models.SeverityMild, false},
		{12, models.SeverityModerate, false},
		{20, models.SeveritySevere, true},
	}

	for _, tt := range tests {
		a, err := Score(models.QuizPHQ9, responsesWithSum(9, tt.score, phq9IdeationItem))
		require.NoError(t, err)
		assert.Equal(t, tt.score, a.Score)
		assert.Equal(t, tt.severity, a.Severity, "score=%d", tt.score)
		assert.Equal(t, tt.escalation, a.Escalation, "score=%d", tt.score)
	}
}

// 测试PHQ-9第9题非零即升级
func TestPHQ9IdeationEscalates(t *testing.T) {
	r := responsesWithSum(9, 0, -1)
	r[8] = 1

	a, err := Score(models.QuizPHQ9, r)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityMinimal, a.Severity)
	assert.True(t, a.Escalation)
	assert.Equal(t, models.AlertHigh, a.AlertSeverity())

	// GAD-7 没有该规则
	g := responsesWithSum(7, 0, -1)
	g[6] = 3
	a, err = Score(models.QuizGAD7, g)
	require.NoError(t, err)
	assert.False(t, a.Escalation)
}

// 测试分档边界
func TestSeverityBoundaries(t *testing.T) {
	cases := map[models.QuizType][]models.Severity{
		models.QuizPHQ9: {
			4: models.SeverityMinimal, 5: models.SeverityMild, 9: models.SeverityMild,
			10: models.SeverityModerate, 14: models.SeverityModerate, 15: models.SeveritySevere,
		},
		models.QuizSleepIndex: {
			5: models.SeverityMinimal, 6: models.SeverityMild, 10: models.SeverityMild,
			11: models.SeverityModerate, 15: models.SeverityModerate,
		},
	}
	for quiz, byScore := range cases {
		for score, want := range byScore {
			if want == "" {
				continue
			}
			got, err := SeverityFor(quiz, score)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%s score=%d", quiz, score)
		}
	}

	got, err := SeverityFor(models.QuizSleepIndex, 16)
	require.NoError(t, err)
	assert.Equal(t, models.SeveritySevere, got)
}

// 测试非法作答
func TestScoreInvalidResponses(t *testing.T) {
	_, err := Score(models.QuizGAD7, responsesWithSum(6, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidResponses)

	r := responsesWithSum(7, 0, -1)
	r[2] = 4
	_, err = Score(models.QuizGAD7, r)
	assert.ErrorIs(t, err, ErrInvalidResponses)

	r = responsesWithSum(7, 0, -1)
	delete(r, 3)
	r[10] = 1
	_, err = Score(models.QuizGAD7, r)
	assert.ErrorIs(t, err, ErrInvalidResponses)

	_, err = Score("BDI", map[int]int{})
	assert.ErrorIs(t, err, ErrUnknownQuiz)
}

// 测试问卷题目
func TestQuizCatalog(t *testing.T) {
	quizzes := Quizzes(models.LangEN)
	require.Len(t, quizzes, 3)
	assert.Len(t, quizzes[0].Questions, 9)
	assert.Len(t, quizzes[1].Questions, 7)
	assert.Len(t, quizzes[2].Questions, 5)

	hi, err := GetQuiz(models.QuizGAD7, models.LangHI)
	require.NoError(t, err)
	assert.Equal(t, "बिल्कुल नहीं", hi.Options[0])
	assert.Len(t, hi.Questions, 7)

	_, err = GetQuiz("unknown", models.LangEN)
	assert.ErrorIs(t, err, ErrUnknownQuiz)
}
