package wellness

import (
	"errors"
	"fmt"

	"studenthub-backend/internal/models"
)

var (
	ErrUnknownQuiz      = errors.New("unknown quiz type")
	ErrInvalidResponses = errors.New("invalid quiz responses")
)

const (
	MinResponse = 0
	MaxResponse = 3
	// PHQ-9 第9题：自杀意念
	phq9IdeationItem = 8
)

// Quiz 问卷定义，题目分中英文（英文/印地语）两套
type Quiz struct {
	Type        models.QuizType `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Questions   []string        `json:"questions"`
	Options     []string        `json:"options"`
	Duration    string          `json:"duration"`

	// 各档上限：minimal <= bounds[0], mild <= bounds[1], moderate <= bounds[2]
	bounds [3]int
}

type quizText struct {
	title, description string
	questions          []string
}

type quizDef struct {
	quizType models.QuizType
	duration string
	bounds   [3]int
	text     map[models.Language]quizText
}

var responseOptions = map[models.Language][]string{
	models.LangEN: {"Not at all", "Several days", "More than half the days", "Nearly every day"},
	models.LangHI: {"बिल्कुल नहीं", "कई दिन", "आधे से ज्यादा दिन", "लगभग हर दिन"},
}

var quizDefs = []quizDef{
	{
		quizType: models.QuizPHQ9,
		duration: "5-7 min",
		bounds:   [3]int{4, 9, 14},
		text: map[models.Language]quizText{
			models.LangEN: {
				title:       "Depression Screening (PHQ-9)",
				description: "Assess symptoms of depression over the past 2 weeks",
				questions: []string{
					"Little interest or pleasure in doing things",
					"Feeling down, depressed, or hopeless",
					"Trouble falling or staying asleep, or sleeping too much",
					"Feeling tired or having little energy",
					"Poor appetite or overeating",
					"Feeling bad about yourself or that you are a failure",
					"Trouble concentrating on things",
					"Moving or speaking slowly, or being fidgety",
					"Thoughts that you would be better off dead",
				},
			},
			models.LangHI: {
				title:       "अवसाद स्क्रीनिंग (PHQ-9)",
				description: "पिछले 2 सप्ताह में अवसाद के लक्षणों का आकलन करें",
				questions: []string{
					"चीजों में कम रुचि या खुशी महसूस करना",
					"उदास, निराश, या निराशाजनक महसूस करना",
					"सोने में परेशानी या बहुत ज्यादा सोना",
					"थकान या कम ऊर्जा महसूस करना",
					"भूख न लगना या ज्यादा खाना",
					"अपने बारे में बुरा महसूस करना या असफल होने का एहसास",
					"चीजों पर ध्यान केंद्रित करने में परेशानी",
					"धीरे बोलना या बेचैनी महसूस करना",
					"यह सोचना कि आप मर जाएं तो बेहतर होगा",
				},
			},
		},
	},
	{
		quizType: models.QuizGAD7,
		duration: "3-5 min",
		bounds:   [3]int{4, 9, 14},
		text: map[models.Language]quizText{
			models.LangEN: {
				title:       "Anxiety Screening (GAD-7)",
				description: "Evaluate anxiety symptoms over the past 2 weeks",
				questions: []string{
					"Feeling nervous, anxious, or on edge",
					"Not being able to stop or control worrying",
					"Worrying too much about different things",
					"Trouble relaxing",
					"Being so restless that it is hard to sit still",
					"Becoming easily annoyed or irritable",
					"Feeling afraid, as if something awful might happen",
				},
			},
			models.LangHI: {
				title:       "चिंता स्क्रीनिंग (GAD-7)",
				description: "पिछले 2 सप्ताह में चिंता के लक्षणों का मूल्यांकन करें",
				questions: []string{
					"घबराहट, चिंता, या बेचैनी महसूस करना",
					"चिंता को रोकने या नियंत्रित करने में असमर्थ होना",
					"अलग-अलग चीजों के बारे में बहुत ज्यादा चिंता करना",
					"आराम करने में परेशानी",
					"इतनी बेचैनी कि बैठना मुश्किल हो",
					"आसानी से परेशान या चिड़चिड़ाहट होना",
					"डर लगना, जैसे कुछ भयानक होने वाला हो",
				},
			},
		},
	},
	{
		quizType: models.QuizSleepIndex,
		duration: "3-4 min",
		bounds:   [3]int{5, 10, 15},
		text: map[models.Language]quizText{
			models.LangEN: {
				title:       "Sleep Quality Index",
				description: "Assess your sleep patterns and quality",
				questions: []string{
					"How would you rate your sleep quality?",
					"How often do you have trouble falling asleep?",
					"Do you wake up feeling rested?",
					"How often do you wake up during the night?",
					"Do sleep problems affect your daily activities?",
				},
			},
			models.LangHI: {
				title:       "नींद गुणवत्ता सूचकांक",
				description: "अपने नींद के पैटर्न और गुणवत्ता का आकलन करें",
				questions: []string{
					"आप अपनी नींद की गुणवत्ता को कैसे रेट करेंगे?",
					"आपको कितनी बार सोने में परेशानी होती है?",
					"क्या आप आराम महसूस करते हुए जागते हैं?",
					"आप रात में कितनी बार जागते हैं?",
					"क्या नींद की समस्याएं आपकी दैनिक गतिविधियों को प्रभावित करती हैं?",
				},
			},
		},
	},
}

func findQuiz(t models.QuizType) (quizDef, bool) {
	for _, def := range quizDefs {
		if def.quizType == t {
			return def, true
		}
	}
	return quizDef{}, false
}

func (d quizDef) localize(lang models.Language) Quiz {
	lang = lang.Normalize()
	text := d.text[lang]
	return Quiz{
		Type:        d.quizType,
		Title:       text.title,
		Description: text.description,
		Questions:   text.questions,
		Options:     responseOptions[lang],
		Duration:    d.duration,
		bounds:      d.bounds,
	}
}

// Quizzes 返回全部问卷
func Quizzes(lang models.Language) []Quiz {
	out := make([]Quiz, 0, len(quizDefs))
	for _, def := range quizDefs {
		out = append(out, def.localize(lang))
	}
	return out
}

func GetQuiz(t models.QuizType, lang models.Language) (Quiz, error) {
	def, ok := findQuiz(t)
	if !ok {
		return Quiz{}, fmt.Errorf("%w: %s", ErrUnknownQuiz, t)
	}
	return def.localize(lang), nil
}

// SeverityFor 分数分档
func SeverityFor(t models.QuizType, score int) (models.Severity, error) {
	def, ok := findQuiz(t)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownQuiz, t)
	}
	switch {
	case score <= def.bounds[0]:
		return models.SeverityMinimal, nil
	case score <= def.bounds[1]:
		return models.SeverityMild, nil
	case score <= def.bounds[2]:
		return models.SeverityModerate, nil
	default:
		return models.SeveritySevere, nil
	}
}

// Assessment 计分结果
type Assessment struct {
	QuizType   models.QuizType
	Score      int
	Severity   models.Severity
	Escalation bool
}

// AlertSeverity 需要升级时对应的告警级别
func (a Assessment) AlertSeverity() models.AlertSeverity {
	if a.Severity == models.SeveritySevere {
		return models.AlertCritical
	}
	return models.AlertHigh
}

// Score 校验作答并计分
// 作答数必须等于题目数，且每题取值 0..3
func Score(t models.QuizType, responses map[int]int) (Assessment, error) {
	def, ok := findQuiz(t)
	if !ok {
		return Assessment{}, fmt.Errorf("%w: %s", ErrUnknownQuiz, t)
	}

	count := len(def.text[models.LangEN].questions)
	if len(responses) != count {
		return Assessment{}, fmt.Errorf("%w: expected %d responses, got %d", ErrInvalidResponses, count, len(responses))
	}

	score := 0
	for i := 0; i < count; i++ {
		v, ok := responses[i]
		if !ok {
			return Assessment{}, fmt.Errorf("%w: missing response for question %d", ErrInvalidResponses, i+1)
		}
		if v < MinResponse || v > MaxResponse {
			return Assessment{}, fmt.Errorf("%w: response %d out of range", ErrInvalidResponses, v)
		}
		score += v
	}

	severity, err := SeverityFor(t, score)
	if err != nil {
		return Assessment{}, err
	}

	escalation := severity == models.SeveritySevere
	if t == models.QuizPHQ9 && responses[phq9IdeationItem] > 0 {
		escalation = true
	}

	return Assessment{
		QuizType:   t,
		Score:      score,
		Severity:   severity,
		Escalation: escalation,
	}, nil
}
