package wellness

import (
	"sort"

	"studenthub-backend/internal/common"
	"studenthub-backend/internal/models"
)

// Level 每 100 分升一级，从 1 级开始
func Level(totalPoints int) int {
	if totalPoints < 0 {
		totalPoints = 0
	}
	return 1 + totalPoints/common.PointsPerLevel
}

// StreakBonus 首次记录当天心情且连续天数为 7 的倍数时奖励
func StreakBonus(streak int) int {
	if streak > 0 && streak%7 == 0 {
		return common.PointsStreakBonus
	}
	return 0
}

var AllBadges = map[string]models.Badge{
	"first_steps": {
		ID:             "first_steps",
		Name:           "First Steps",
		Description:    "Earned your first points",
		Icon:           "🌱",
		PointsRequired: 10,
		Category:       "milestone",
	},
	"self_aware": {
		ID:             "self_aware",
		Name:           "Self Aware",
		Description:    "Reached 100 points",
		Icon:           "🧭",
		PointsRequired: 100,
		Category:       "milestone",
	},
	"wellness_warrior": {
		ID:             "wellness_warrior",
		Name:           "Wellness Warrior",
		Description:    "Reached 500 points",
		Icon:           "🛡️",
		PointsRequired: 500,
		Category:       "milestone",
	},
	"mindful_master": {
		ID:             "mindful_master",
		Name:           "Mindful Master",
		Description:    "Reached 1000 points",
		Icon:           "🏆",
		PointsRequired: 1000,
		Category:       "milestone",
	},
	"three_day_streak": {
		ID:             "three_day_streak",
		Name:           "Getting Started",
		Description:    "Logged your mood 3 days in a row",
		Icon:           "🔥",
		StreakRequired: 3,
		Category:       "mood",
	},
	"week_streak": {
		ID:             "week_streak",
		Name:           "Consistency Champion",
		Description:    "Logged your mood 7 days in a row",
		Icon:           "📅",
		StreakRequired: 7,
		Category:       "mood",
	},
	"month_streak": {
		ID:             "month_streak",
		Name:           "Habit Builder",
		Description:    "Logged your mood 30 days in a row",
		Icon:           "💎",
		StreakRequired: 30,
		Category:       "mood",
	},
}

func GetBadge(id string) (models.Badge, bool) {
	badge, exists := AllBadges[id]
	return badge, exists
}

// BadgeList 按积分、连续天数排序的徽章列表
func BadgeList() []models.Badge {
	badges := make([]models.Badge, 0, len(AllBadges))
	for _, badge := range AllBadges {
		badges = append(badges, badge)
	}
	sort.Slice(badges, func(i, j int) bool {
		if badges[i].Category != badges[j].Category {
			return badges[i].Category < badges[j].Category
		}
		if badges[i].PointsRequired != badges[j].PointsRequired {
			return badges[i].PointsRequired < badges[j].PointsRequired
		}
		return badges[i].StreakRequired < badges[j].StreakRequired
	})
	return badges
}

// EarnedBadges 在已有徽章基础上追加新达成的，已获得的不会收回
func EarnedBadges(owned []string, totalPoints, longestStreak int) []string {
	has := make(map[string]struct{}, len(owned))
	out := make([]string, 0, len(owned))
	for _, id := range owned {
		if _, dup := has[id]; dup {
			continue
		}
		has[id] = struct{}{}
		out = append(out, id)
	}

	for _, badge := range BadgeList() {
		if _, ok := has[badge.ID]; ok {
			continue
		}
		if badge.PointsRequired > 0 && totalPoints < badge.PointsRequired {
			continue
		}
		if badge.StreakRequired > 0 && longestStreak < badge.StreakRequired {
			continue
		}
		out = append(out, badge.ID)
	}
	return out
}
