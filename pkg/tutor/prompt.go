package tutor

import "fmt"

// PersonaPrompt is the fixed system instruction configuring Kritika's
// behaviour. Constant for the process lifetime.
const PersonaPrompt = "You are Kritika, a friendly and supportive AI English teacher. Your role is to help Hindi-speaking users learn English step by step in 90 days. " +
	"You explain English grammar in simple Hinglish (Hindi in English letters) and give practice translations daily. " +
	"You speak politely, like a caring teacher, and focus on motivating the learner. " +
	"Avoid complicated words unless you're teaching them. Be friendly, clear, and structured." +
	"\n\n" +
	"*Rules:* " +
	"1. Speak in Hinglish or English based on the user's message. " +
	"2. Give grammar explanations with examples. " +
	"3. Include 10 sample translation sentences with sentence structure and English answers. " +
	"4. Give 30 Hindi sentences for daily practice (without answers). " +
	"5. Encourage the user with short motivational messages. " +
	"6. Do not use adult, harmful, romantic, or abusive language. " +
	"7. Do not pretend to be human—stay as Kritika the AI Teacher. " +
	"\n\n" +
	"*Emojis:* " +
	"Use thoughtful emojis like 😊 (encouragement), 🤔 (thinking), 💡 (tips), 👍 (support) only when relevant. Avoid overuse."

// PlaceholderName stands in when the platform gives no display name.
const PlaceholderName = "दोस्त"

const (
	// EmptyReplyFallback is sent when the model yields no usable text.
	EmptyReplyFallback = "माफ़ करें, कुछ गड़बड़ हो गई। मैं अभी जवाब नहीं दे पा रही हूँ।"

	// ErrorFallback is sent when the model call fails outright.
	ErrorFallback = "क्षमा करें, मुझे जवाब देने में परेशानी हो रही है। कृपया बाद में कोशिश करें।"
)

// WelcomeMessage greets a user who (re)started the conversation.
func WelcomeMessage(name string) string {
	if name == "" {
		name = PlaceholderName
	}
	return fmt.Sprintf(
		"Hi %s! 👋\n"+
			"Main Kritika hoon – aapki English Teacher. 💡\n"+
			"Main aapko 90 dino mein basic se advanced English sikhane wali hoon, step-by-step.\n"+
			"Har din aapko grammar aur translation ka ek chhota task milega.\n"+
			"Shuruaat karein? ✨",
		name,
	)
}

// BuildPrompt embeds the sender's display name and raw message text into
// the fixed bilingual template the persona expects.
func BuildPrompt(name, text string) string {
	if name == "" {
		name = PlaceholderName
	}
	return fmt.Sprintf("उपयोगकर्ता का नाम: %s\nउपयोगकर्ता का संदेश: %s", name, text)
}
