package chat

import (
	"fmt"
	"strings"

	"github.com/mediread/vault/internal/entity"
)

// AssistantSystemPrompt sets the tone and citation discipline for the
// health assistant.
const AssistantSystemPrompt = `You are MediRead AI — a friendly, knowledgeable health assistant inside the MediRead health vault app.

Your personality:
- Be warm, conversational, and approachable — like a helpful friend who happens to know a lot about health.
- For casual messages (greetings, small talk), respond naturally and warmly. Don't force medical advice into every reply.
- For health-related questions, be thorough, clear, and cite your sources.
- ALWAYS explain in simple, everyday language as if talking to someone with no medical background.
- Avoid medical jargon. When you must use a medical term, immediately explain what it means in plain English.

Response formatting (IMPORTANT):
- Use **bold** for key terms, test names, and important values.
- Use bullet points or numbered lists to organize information clearly.
- Keep paragraphs short (2-3 sentences max).
- Use line breaks between sections for readability.

When answering health questions:
1. Identify what the user is asking about (specific tests, medications, conditions, trends).
2. Use ONLY the health data provided in the context. Do NOT make up values.
3. For each lab value, explain what the test is for, what the user's value is, what the normal range is, and whether they are within range — in simple terms.
4. Use careful language: "could mean", "may be associated with", "can sometimes indicate".
5. Do NOT provide definitive diagnoses, recommend medication changes, or give treatment advice.
6. If the user asks general questions like "summarize my health", review ALL available health data and give a comprehensive overview.

Citations (IMPORTANT):
- Do NOT place citations inline in the text.
- Instead, collect ALL source references and list them at the very end under a "**Sources:**" section.
- Format each source as: • Document name — Date
- Only cite documents explicitly listed in the provided context.
- If no health data is available, mention that clearly.

For casual conversation, just be friendly — no need to add sources.`

// NotConfiguredReply is returned when no model credential is set.
const NotConfiguredReply = "MediRead AI is not configured yet. Please set the GROQ_API_KEY environment variable to enable AI chat."

// RateLimitedReply is a soft reply when the model backend throttles us.
const RateLimitedReply = "The AI service is rate-limited right now. Please wait a moment and try again."

// BuildContext renders the profile and snapshot into the health-data
// block appended to the system prompt. Every entry carries its source
// document and date so the model can cite them.
func BuildContext(profile *entity.Profile, snap *entity.HealthSnapshot) string {
	var b strings.Builder

	if profile != nil {
		fmt.Fprintf(&b, "\nUser Profile: Age %d, Gender: %s", profile.Age, profile.Gender)
		if len(profile.KnownConditions) > 0 {
			fmt.Fprintf(&b, ", Known conditions: %s", strings.Join(profile.KnownConditions, ", "))
		}
	}
	if snap != nil {
		if len(snap.ActiveConditions) > 0 {
			fmt.Fprintf(&b, "\nActive Conditions: %s", strings.Join(snap.ActiveConditions, ", "))
		}
		if len(snap.CurrentMedications) > 0 {
			b.WriteString("\nCurrent Medications:")
			for _, m := range snap.CurrentMedications {
				fmt.Fprintf(&b, "\n  - %s (%s, %s) [Source: %s, %s]",
					orDefault(m.MedicineName, "Unknown"),
					orDefault(m.Dosage, "N/A"),
					orDefault(m.Frequency, "N/A"),
					orString(m.SourceDoc, "Unknown"),
					orString(m.SourceDate, "Unknown date"),
				)
			}
		}
		if len(snap.LatestLabs) > 0 {
			b.WriteString("\nLatest Lab Results:")
			for _, l := range snap.LatestLabs {
				flag := "normal"
				if l.AbnormalFlag != nil {
					flag = string(*l.AbnormalFlag)
				}
				fmt.Fprintf(&b, "\n  - %s: %s %s (Ref: %s, Flag: %s) [Source: %s, %s]",
					orDefault(l.TestName, "Unknown"),
					l.Value.String(),
					orDefault(l.Unit, ""),
					orDefault(l.ReferenceRange, "N/A"),
					flag,
					orString(l.SourceDoc, "Unknown"),
					orString(l.SourceDate, "Unknown date"),
				)
			}
		}
	}

	return b.String()
}

func orDefault(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func orString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
