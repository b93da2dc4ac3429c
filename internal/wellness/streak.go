package wellness

import (
	"sort"
	"time"
)

// DayLayout 心情记录的日期键格式
const DayLayout = "2006-01-02"

const DefaultStreakWindow = 30

// DayKey 返回 t 在 loc 时区下的日期键
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// StreakCalculator 从今天往前逐日探测，遇到第一个空缺即停止
type StreakCalculator struct {
	Window   int
	Location *time.Location
}

func NewStreakCalculator(window int, loc *time.Location) *StreakCalculator {
	if window <= 0 {
		window = DefaultStreakWindow
	}
	if loc == nil {
		loc = time.Local
	}
	return &StreakCalculator{Window: window, Location: loc}
}

// Current 计算连续打卡天数，今天没有记录即为 0
func (s *StreakCalculator) Current(today time.Time, has func(day string) bool) int {
	streak := 0
	for i := 0; i < s.Window; i++ {
		if !has(s.dayBefore(today, i)) {
			break
		}
		streak++
	}
	return streak
}

func (s *StreakCalculator) dayBefore(today time.Time, n int) string {
	return DayBefore(today, n, s.Location)
}

// DayBefore today 往前 n 天的日期键
// 取正午再减天数，跨夏令时也不会落到错误的日期
func DayBefore(today time.Time, n int, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := today.In(loc).Date()
	return time.Date(y, m, d-n, 12, 0, 0, 0, loc).Format(DayLayout)
}

// LongestRun 日期键集合中最长的连续天数
func LongestRun(days []string) int {
	parsed := make([]time.Time, 0, len(days))
	seen := make(map[string]struct{}, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		t, err := time.Parse(DayLayout, d)
		if err != nil {
			continue
		}
		seen[d] = struct{}{}
		parsed = append(parsed, t)
	}
	if len(parsed) == 0 {
		return 0
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Before(parsed[j]) })

	longest, run := 1, 1
	for i := 1; i < len(parsed); i++ {
		if parsed[i].Sub(parsed[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
