package wellness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func daySet(days ...string) func(string) bool {
	set := make(map[string]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	return func(day string) bool { return set[day] }
}

func lastNDays(today time.Time, n int) []string {
	days := make([]string, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, today.AddDate(0, 0, -i).Format(DayLayout))
	}
	return days
}

// 测试连续N天打卡
func TestStreakConsecutiveDays(t *testing.T) {
	calc := NewStreakCalculator(30, time.UTC)
	today := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	for _, n := range []int{1, 2, 5, 12, 29} {
		assert.Equal(t, n, calc.Current(today, daySet(lastNDays(today, n)...)), "n=%d", n)
	}
}

// 测试中间断签后只计算断点之后的天数
func TestStreakGapResets(t *testing.T) {
	calc := NewStreakCalculator(30, time.UTC)
	today := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	days := lastNDays(today, 10)

	for gap := 1; gap < 10; gap++ {
		withGap := append([]string{}, days[:gap]...)
		withGap = append(withGap, days[gap+1:]...)
		assert.Equal(t, gap, calc.Current(today, daySet(withGap...)), "gap=%d", gap)
	}
}

// 测试今天未打卡时连续天数为 0
func TestStreakTodayMissing(t *testing.T) {
	calc := NewStreakCalculator(30, time.UTC)
	today := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	days := lastNDays(today.AddDate(0, 0, -1), 5)
	assert.Equal(t, 0, calc.Current(today, daySet(days...)))

	days = lastNDays(today.AddDate(0, 0, -1), 40)
	assert.Equal(t, 0, calc.Current(today, daySet(days...)))

	// 补上今天后从今天起算，受窗口限制
	days = append(days, today.Format(DayLayout))
	assert.Equal(t, 30, calc.Current(today, daySet(days...)))
}

// 测试窗口上限
func TestStreakWindowBound(t *testing.T) {
	calc := NewStreakCalculator(30, time.UTC)
	today := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 30, calc.Current(today, daySet(lastNDays(today, 45)...)))
	assert.Equal(t, 30, NewStreakCalculator(0, nil).Window)
}

// 测试跨夏令时
func TestStreakAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	calc := NewStreakCalculator(30, loc)
	// 2024-03-10 美东切换夏令时
	today := time.Date(2024, 3, 12, 0, 30, 0, 0, loc)
	days := []string{"2024-03-12", "2024-03-11", "2024-03-10", "2024-03-09", "2024-03-08"}

	assert.Equal(t, 5, calc.Current(today, daySet(days...)))
}

// 测试按时区取日期键
func TestDayKeyUsesLocation(t *testing.T) {
	ts := time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC)
	ist := time.FixedZone("IST", 5*3600+1800)

	assert.Equal(t, "2024-03-15", DayKey(ts, time.UTC))
	assert.Equal(t, "2024-03-16", DayKey(ts, ist))
}

// 测试最长连续天数
func TestLongestRun(t *testing.T) {
	assert.Equal(t, 0, LongestRun(nil))
	assert.Equal(t, 1, LongestRun([]string{"2024-01-01"}))
	assert.Equal(t, 3, LongestRun([]string{
		"2024-01-05", "2024-01-01", "2024-01-02", "2024-01-03", "2024-01-07", "2024-01-06",
	}))
	assert.Equal(t, 2, LongestRun([]string{"2024-02-28", "2024-02-29", "2024-02-29", "bad"}))
}
