// Package persona holds the static behaviour of every bot persona: the
// instruction handed to the completion model and the keyword rules used when
// the model cannot be reached.
package persona

import (
	"fmt"
	"strings"

	"github.com/iamvkosarev/bot-console/internal/model"
)

// Rand is the source of the few randomized choices in canned replies.
type Rand interface {
	IntN(n int) int
}

// Rule answers when any of its keywords is contained in the lowercased message.
type Rule struct {
	Keywords []string
	Reply    func(r Rand) string
}

// Matches reports whether lowerMessage contains one of the rule keywords.
func (r Rule) Matches(lowerMessage string) bool {
	return containsAny(lowerMessage, r.Keywords)
}

type Profile struct {
	Persona     model.Persona
	Instruction string
	Rules       []Rule
	Default     string
}

// Overrides are persona independent and checked before any persona rule.
type Overrides struct {
	GreetingKeywords []string
	Greetings        []string
	ThanksKeywords   []string
	Thanks           string
	FarewellKeywords []string
	Farewell         string
}

// Registry is built once and never mutated.
type Registry struct {
	profiles  map[model.Persona]Profile
	overrides Overrides
}

func NewRegistry() *Registry {
	profiles := make(map[model.Persona]Profile, len(model.Personas))
	for _, p := range []Profile{
		supportProfile(),
		hrProfile(),
		financeProfile(),
		salesProfile(),
		marketingProfile(),
		genericProfile(),
	} {
		profiles[p.Persona] = p
	}
	return &Registry{
		profiles:  profiles,
		overrides: defaultOverrides(),
	}
}

// Profile returns the persona profile, the generic one for unknown personas.
func (r *Registry) Profile(p model.Persona) Profile {
	if profile, ok := r.profiles[p]; ok {
		return profile
	}
	return r.profiles[model.PersonaGeneric]
}

func (r *Registry) Instruction(p model.Persona) string {
	return r.Profile(p).Instruction
}

func (r *Registry) Overrides() Overrides {
	return r.overrides
}

// ContainsAny is the keyword test shared by rules and overrides.
func ContainsAny(lowerMessage string, keywords []string) bool {
	return containsAny(lowerMessage, keywords)
}

func containsAny(lowerMessage string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(lowerMessage, keyword) {
			return true
		}
	}
	return false
}

func static(text string) func(Rand) string {
	return func(Rand) string {
		return text
	}
}

const basePrompt = "You are a helpful AI assistant for Blueinc, a business management company. " +
	"You should be professional, friendly, and knowledgeable. " +
	"Always provide helpful, accurate information and maintain a conversational tone."

func instruction(role string, duties []string, closing string) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString(" ")
	b.WriteString(role)
	if len(duties) > 0 {
		for _, duty := range duties {
			b.WriteString("\n- ")
			b.WriteString(duty)
		}
		b.WriteString("\n\n")
	} else {
		b.WriteString(" ")
	}
	b.WriteString(closing)
	return b.String()
}

func defaultOverrides() Overrides {
	return Overrides{
		GreetingKeywords: []string{"hello", "hi", "hey"},
		Greetings: []string{
			"Hello! I'm here to help you. How can I assist you today?",
			"Hi there! I'm ready to help with any questions you might have.",
			"Greetings! I'm your AI assistant. What can I do for you?",
		},
		ThanksKeywords:   []string{"thank"},
		Thanks:           "You're very welcome! I'm glad I could help. Is there anything else you'd like to know?",
		FarewellKeywords: []string{"bye", "goodbye", "see you"},
		Farewell:         "Goodbye! It was great chatting with you. Feel free to come back if you have more questions!",
	}
}

func supportProfile() Profile {
	return Profile{
		Persona: model.PersonaSupport,
		Instruction: instruction(
			"You are a technical support specialist. You help users with:",
			[]string{
				"Account issues and login problems",
				"Password resets and security",
				"Bug reports and technical issues",
				"System status and troubleshooting",
				"General technical support",
			},
			"Always be patient, clear, and helpful. If you need more information, ask for it politely.",
		),
		Rules: []Rule{
			{
				Keywords: []string{"account", "login"},
				Reply: static("I can definitely help you with account issues. I'll need to verify your identity first. " +
					"Could you please provide your username or email address? I'll then check your account status " +
					"and help resolve any issues you're experiencing."),
			},
			{
				Keywords: []string{"password"},
				Reply: static("I understand you're having password issues. I can help you reset your password securely. " +
					"I'll send a reset link to your registered email address. Please check your inbox and follow the " +
					"instructions. For security reasons, the link will expire in 24 hours."),
			},
			{
				Keywords: []string{"bug", "error"},
				Reply: func(r Rand) string {
					return fmt.Sprintf("I've created a support ticket for you (Ticket #%d). I'll need some additional "+
						"information to help our technical team resolve this quickly. Could you please describe:\n\n"+
						"1. What exactly happened?\n2. What were you trying to do?\n3. What error message did you see?\n\n"+
						"This will help us get this resolved as soon as possible.", r.IntN(10000))
				},
			},
			{
				Keywords: []string{"status", "check"},
				Reply: static("I'm checking your account status right now... Based on my analysis, your account is " +
					"active and in good standing. All systems are operational, and you have full access to all " +
					"features. Is there a specific issue you're experiencing?"),
			},
			{
				Keywords: []string{"help", "support"},
				Reply: static("I'm here to help! I can assist with account issues, password resets, bug reports, " +
					"system status checks, and general technical support. What specific problem are you facing? " +
					"Please describe it in detail so I can provide the most accurate assistance."),
			},
		},
		Default: "Thank you for reaching out to our support team. I'm here to help with any technical issues, " +
			"account problems, or general questions you might have. Could you please describe what you need help " +
			"with? I'll do my best to assist you or escalate to a human agent if needed.",
	}
}

func hrProfile() Profile {
	return Profile{
		Persona: model.PersonaHR,
		Instruction: instruction(
			"You are an HR assistant. You help employees with:",
			[]string{
				"Leave requests and time off",
				"Company policies and procedures",
				"Benefits and compensation",
				"Employee information",
				"Meeting scheduling",
				"General HR inquiries",
			},
			"Be professional, empathetic, and maintain confidentiality.",
		),
		Rules: []Rule{
			{
				Keywords: []string{"leave", "vacation"},
				Reply: static("I'd be happy to help you with your leave request. I can guide you through the process " +
					"step by step. First, let me know what type of leave you need:\n\n• Annual Leave\n• Sick Leave\n" +
					"• Personal Leave\n• Maternity/Paternity Leave\n• Other\n\nOnce you specify the type, I'll open " +
					"the appropriate form and help you fill it out."),
			},
			{
				Keywords: []string{"policy", "rules"},
				Reply: static("I can provide detailed information about our company policies. We have comprehensive " +
					"policies covering:\n\n• Leave and Time Off\n• Benefits and Compensation\n• Code of Conduct\n" +
					"• Remote Work\n• Health and Safety\n\nWhich policy would you like to learn more about? I can " +
					"also search for specific topics within these policies."),
			},
			{
				Keywords: []string{"benefits"},
				Reply: static("I'd be happy to help you understand your benefits package. I'm accessing your " +
					"benefits profile now. Our benefits include:\n\n• Health Insurance (Medical, Dental, Vision)\n" +
					"• 401(k) Retirement Plan\n• Paid Time Off\n• Professional Development\n• Wellness Programs\n\n" +
					"What specific benefit would you like to know more about? I can provide detailed information " +
					"about coverage, eligibility, and how to access these benefits."),
			},
			{
				Keywords: []string{"schedule", "meeting"},
				Reply: static("I can help you schedule meetings and manage your calendar. I'll check your " +
					"availability and help you find the best time slots. What type of meeting do you need to " +
					"schedule?\n\n• One-on-one meeting\n• Team meeting\n• Client meeting\n• Interview\n• Other\n\n" +
					"Please let me know the participants and preferred duration, and I'll suggest available time slots."),
			},
			{
				Keywords: []string{"salary", "pay"},
				Reply: static("I understand you have questions about compensation. I can help you with general " +
					"information about our salary structure, payment schedules, and benefits. However, for specific " +
					"salary information, you may need to speak with your manager or HR representative. What would " +
					"you like to know about our compensation policies?"),
			},
		},
		Default: "I'm here to help with all your HR-related questions and needs. I can assist with leave requests, " +
			"policy information, benefits, scheduling, and general HR inquiries. What would you like to know about? " +
			"Please provide as much detail as possible so I can give you the most accurate and helpful response.",
	}
}

func financeProfile() Profile {
	return Profile{
		Persona: model.PersonaFinance,
		Instruction: instruction(
			"You are a finance assistant. You help with:",
			[]string{
				"Expense reports and reimbursements",
				"Invoice and payment queries",
				"Budget information and analysis",
				"Financial policies and procedures",
				"Salary and payment information",
				"General financial inquiries",
			},
			"Be accurate, professional, and helpful with financial matters.",
		),
		Rules: []Rule{
			{
				Keywords: []string{"expense", "report"},
				Reply: static("I can help you submit an expense report. I'll guide you through the process step by " +
					"step. First, let me open the expense submission form for you. You'll need to provide:\n\n" +
					"• Date of expense\n• Amount\n• Category (travel, meals, office supplies, etc.)\n" +
					"• Description of the expense\n• Receipt (if applicable)\n\nWould you like me to walk you through " +
					"each field, or do you have specific questions about expense reporting?"),
			},
			{
				Keywords: []string{"invoice", "payment"},
				Reply: static("I can help you with invoice and payment queries. I'm accessing your payment history " +
					"and invoice records now. I can provide information about:\n\n• Outstanding invoices\n" +
					"• Payment due dates\n• Payment methods\n• Invoice status\n• Payment history\n\nWhat specific " +
					"information do you need? Please let me know the invoice number or time period you're interested in."),
			},
			{
				Keywords: []string{"budget"},
				Reply: static("I can provide detailed budget information for your department or projects. I'm " +
					"accessing our budget database now. I can show you:\n\n• Current budget status\n• Spending trends\n" +
					"• Budget allocations\n• Variance reports\n• Forecasts\n\nWhich department or project would you " +
					"like budget information for? I can also help you understand budget policies and procedures."),
			},
			{
				Keywords: []string{"salary", "pay"},
				Reply: static("I can help you with salary and payment information. I'm checking your payment records " +
					"now. Based on your profile, your next payment is scheduled for the 15th of this month. I can also " +
					"help you with:\n\n• Pay stubs and tax documents\n• Direct deposit information\n" +
					"• Overtime calculations\n• Bonus payments\n• Tax withholding\n\nWhat specific payment " +
					"information do you need?"),
			},
		},
		Default: "I'm here to help with all your financial matters and questions. I can assist with expense reports, " +
			"invoices, budget information, payment queries, and general financial inquiries. What would you like to " +
			"know about? Please provide details so I can give you the most accurate and helpful information.",
	}
}

func salesProfile() Profile {
	return Profile{
		Persona: model.PersonaSales,
		Instruction: instruction(
			"You are a sales assistant. You help with:",
			[]string{
				"Lead management and qualification",
				"Deal tracking and opportunities",
				"Customer relationship management",
				"Sales analytics and reporting",
				"Sales process optimization",
				"General sales support",
			},
			"Be enthusiastic, helpful, and focused on driving sales success.",
		),
		Rules: []Rule{
			{
				Keywords: []string{"lead", "prospect"},
				Reply: static("I can help you manage your leads and prospects effectively. I'm analyzing your sales " +
					"pipeline right now. Based on current data, you have 5 active leads this month with a total " +
					"potential value of $125,000. I can help you with:\n\n• Lead qualification\n• Follow-up scheduling\n" +
					"• Pipeline management\n• Lead scoring\n• Conversion tracking\n\nWould you like me to show you " +
					"detailed information about any specific leads or help you prioritize your follow-up activities?"),
			},
			{
				Keywords: []string{"deal", "opportunity"},
				Reply: static("I can help you track and manage your deals and opportunities. I'm analyzing your sales " +
					"data now. Your current conversion rate is 23% this quarter, which is above the team average of 18%. " +
					"I can provide insights on:\n\n• Deal stages and progression\n• Win/loss analysis\n" +
					"• Sales forecasting\n• Performance metrics\n• Best practices\n\nWhat specific aspect of your deals " +
					"would you like to focus on?"),
			},
			{
				Keywords: []string{"customer", "client"},
				Reply: static("I can help you manage your customer relationships effectively. I'm accessing your " +
					"customer database now. You currently have 45 active customers with an average lifetime value of " +
					"$15,000. I can help you with:\n\n• Customer profiles and history\n• Account management\n" +
					"• Upselling opportunities\n• Customer satisfaction\n• Retention strategies\n\nWhat would you like " +
					"to know about your customer base or specific accounts?"),
			},
		},
		Default: "I'm here to help you excel in your sales role. I can assist with lead management, deal tracking, " +
			"customer relationships, sales analytics, and performance optimization. What aspect of your sales process " +
			"would you like to improve or learn more about?",
	}
}

func marketingProfile() Profile {
	return Profile{
		Persona: model.PersonaMarketing,
		Instruction: instruction(
			"You are a marketing assistant. You help with:",
			[]string{
				"Campaign management and optimization",
				"Social media strategy",
				"Email marketing and newsletters",
				"Content creation and planning",
				"Marketing analytics and reporting",
				"General marketing support",
			},
			"Be creative, data-driven, and focused on marketing success.",
		),
		Rules: []Rule{
			{
				Keywords: []string{"campaign", "ad"},
				Reply: static("I can help you manage and optimize your marketing campaigns. I'm checking your campaign " +
					"performance now. Your current campaign has generated 1,234 impressions with a 3.2% click-through " +
					"rate. I can help you with:\n\n• Campaign performance analysis\n• A/B testing strategies\n" +
					"• Audience targeting\n• Budget optimization\n• ROI tracking\n\nWhat specific aspect of your " +
					"campaigns would you like to focus on or improve?"),
			},
			{
				Keywords: []string{"social", "media"},
				Reply: static("I can help you manage your social media presence effectively. I'm accessing your social " +
					"media accounts now. You have 3 scheduled posts for this week across LinkedIn, Twitter, and " +
					"Facebook. I can help you with:\n\n• Content scheduling\n• Engagement analysis\n• Audience insights\n" +
					"• Hashtag optimization\n• Performance tracking\n\nWhat would you like to know about your social " +
					"media strategy or performance?"),
			},
			{
				Keywords: []string{"email", "newsletter"},
				Reply: static("I can help you optimize your email marketing efforts. I'm analyzing your email campaign " +
					"data now. Your last newsletter had a 15% open rate and 2.3% click-through rate, which is above " +
					"industry averages. I can help you with:\n\n• Email list management\n• Subject line optimization\n" +
					"• Content personalization\n• Send time optimization\n• Performance analysis\n\nWhat aspect of " +
					"your email marketing would you like to improve?"),
			},
		},
		Default: "I'm here to help you create and execute effective marketing strategies. I can assist with campaign " +
			"management, social media, email marketing, content creation, and performance analytics. What marketing " +
			"challenge would you like to tackle or what would you like to learn more about?",
	}
}

func genericProfile() Profile {
	return Profile{
		Persona: model.PersonaGeneric,
		Instruction: instruction(
			"You are a general business assistant.",
			nil,
			"Help with any business-related questions and tasks.",
		),
		Default: "I understand your message and I'm here to help. I can process your request and provide relevant " +
			"information, assistance, or guidance. Could you please provide more details about what you need help " +
			"with? I want to make sure I give you the most accurate and helpful response possible.",
	}
}
