package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenthub-backend/internal/models"
	"studenthub-backend/internal/wellness"
)

func uniformResponses(n, v int) map[int]int {
	out := make(map[int]int, n)
	for i := 0; i < n; i++ {
		out[i] = v
	}
	return out
}

// 测试重度结果升级为 critical 告警
func TestQuizSevereRaisesCritical(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.quiz.Submit(ctx, "u1", models.QuizGAD7, uniformResponses(7, 3))
	require.NoError(t, err)
	assert.Equal(t, 21, result.Score)
	assert.Equal(t, models.SeveritySevere, result.Severity)
	assert.True(t, result.EscalationTriggered)

	alerts, err := f.alerts.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertCritical, alerts[0].Severity)
	assert.Equal(t, "High GAD-7 score detected", alerts[0].Message)

	p, err := f.progress.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 25, p.TotalPoints)
}

// 测试 PHQ-9 第九题非零即升级
func TestQuizIdeationItemEscalates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	responses := uniformResponses(9, 0)
	responses[8] = 1

	result, err := f.quiz.Submit(ctx, "u1", models.QuizPHQ9, responses)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityMinimal, result.Severity)
	assert.True(t, result.EscalationTriggered)

	alerts, err := f.alerts.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertHigh, alerts[0].Severity)
}

// 测试非法作答不保存
func TestQuizInvalidResponses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.quiz.Submit(ctx, "u1", models.QuizPHQ9, uniformResponses(8, 1))
	assert.ErrorIs(t, err, wellness.ErrInvalidResponses)
	_, err = f.quiz.Submit(ctx, "u1", "BDI", uniformResponses(9, 1))
	assert.ErrorIs(t, err, wellness.ErrUnknownQuiz)

	results, err := f.quiz.Results(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = f.quiz.Submit(ctx, "u1", models.QuizSleepIndex, uniformResponses(5, 1))
	require.NoError(t, err)
	results, err = f.quiz.Results(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.SeverityMinimal, results[0].Severity)
	assert.False(t, results[0].EscalationTriggered)
}
