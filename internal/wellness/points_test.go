package wellness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 测试等级
func TestLevel(t *testing.T) {
	assert.Equal(t, 1, Level(0))
	assert.Equal(t, 1, Level(99))
	assert.Equal(t, 2, Level(100))
	assert.Equal(t, 6, Level(550))
	assert.Equal(t, 1, Level(-5))
}

// 测试连续打卡奖励
func TestStreakBonus(t *testing.T) {
	assert.Equal(t, 0, StreakBonus(0))
	assert.Equal(t, 0, StreakBonus(6))
	assert.Equal(t, 50, StreakBonus(7))
	assert.Equal(t, 0, StreakBonus(8))
	assert.Equal(t, 50, StreakBonus(14))
}

// 测试徽章只增不减
func TestEarnedBadges(t *testing.T) {
	assert.Empty(t, EarnedBadges(nil, 0, 0))

	badges := EarnedBadges(nil, 120, 3)
	assert.ElementsMatch(t, []string{"first_steps", "self_aware", "three_day_streak"}, badges)

	// 积分减少后已获得徽章仍保留
	kept := EarnedBadges([]string{"mindful_master"}, 10, 0)
	assert.Contains(t, kept, "mindful_master")
	assert.Contains(t, kept, "first_steps")

	// 去重
	assert.Len(t, EarnedBadges([]string{"first_steps", "first_steps"}, 10, 0), 1)
}

// 测试徽章目录
func TestBadgeCatalog(t *testing.T) {
	list := BadgeList()
	assert.Len(t, list, len(AllBadges))

	b, ok := GetBadge("week_streak")
	assert.True(t, ok)
	assert.Equal(t, 7, b.StreakRequired)
}
