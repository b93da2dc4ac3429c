package common

import "studenthub-backend/internal/models"

const (
	RolePromptEN = "You are an empathetic, youth-friendly mental health assistant focused on college students' challenges (career, academics, relationships). You do not provide professional diagnosis. If crisis intent appears, advise contacting local emergency services or a crisis hotline. Tone: warm, relatable, concise paragraphs, practical next steps, and empowerment."
	RolePromptHI = "आप एक सहानुभूतिपूर्ण, युवा-हितैषी मानसिक स्वास्थ्य सहायक हैं, जो कॉलेज छात्रों की चुनौतियों (करियर, अकादमिक, रिश्ते) पर केंद्रित है। आप पेशेवर निदान नहीं देते। यदि संकट के संकेत हों, तो स्थानीय आपातकालीन सेवाओं/क्राइसिस हेल्पलाइन का सुझाव दें। आपकी शैली: गर्मजोशी, सरल भाषा, छोटे पैराग्राफ, व्यावहारिक अगले कदम, और सशक्तिकरण।"

	CrisisReplyEN = "I'm very concerned about what you've shared. Please know that you're not alone and help is available. I strongly encourage you to reach out to a crisis helpline immediately."
	CrisisReplyHI = "मैं आपकी बात से बहुत चिंतित हूं। कृपया जानें कि आप अकेले नहीं हैं और सहायता उपलब्ध है। मैं आपसे तुरंत क्राइसिस हेल्पलाइन से संपर्क करने का आग्रह करता हूं।"

	HotlineNumber  = "1800-599-0019"
	HotlineLabelEN = "National Mental Health Helpline"
	HotlineLabelHI = "राष्ट्रीय मानसिक स्वास्थ्य हेल्पलाइन"
)

// 积分奖励
const (
	PointsDailyMood      = 10
	PointsJournalEntry   = 15
	PointsQuizCompletion = 25
	PointsForumPost      = 20
	PointsForumReply     = 10
	PointsStreakBonus    = 50
)

const PointsPerLevel = 100

// 聊天历史窗口
const ChatHistoryWindow = 10

// RolePrompt 按语言选择系统提示词
func RolePrompt(lang models.Language) string {
	if lang.Normalize() == models.LangHI {
		return RolePromptHI
	}
	return RolePromptEN
}

func CrisisReply(lang models.Language) string {
	if lang.Normalize() == models.LangHI {
		return CrisisReplyHI
	}
	return CrisisReplyEN
}

func HotlineLabel(lang models.Language) string {
	if lang.Normalize() == models.LangHI {
		return HotlineLabelHI
	}
	return HotlineLabelEN
}

// MoodEmojis 心情值 1..5 对应的表情
var MoodEmojis = [...]string{"😢", "😔", "😐", "😊", "😄"}

var ForumCategories = []string{
	"Academic Stress",
	"Social Support",
	"Mental Health",
	"Career Guidance",
	"Relationships",
	"General",
}
