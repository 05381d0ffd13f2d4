package gateway

import (
	"fmt"
	"strings"

	"github.com/csheth/paperdesk/internal/llm"
)

const (
	summarySystem = "You are an expert academic editor."
	reviewSystem  = "You are a critical academic peer reviewer."

	chatGreeting = "Hello, I'm ready to ask questions."
	chatReady    = "I have read the paper. What would you like to know?"

	truncatedMarker = " ... [truncated]"
)

// Mode selects the rewrite style for ImproveText.
type Mode string

const (
	ModeGrammar  Mode = "grammar"
	ModeClarity  Mode = "clarity"
	ModeAcademic Mode = "academic"
)

var improveInstructions = map[Mode]string{
	ModeGrammar:  "Fix grammar and spelling errors. Maintain the original tone.",
	ModeClarity:  "Rewrite for clarity and conciseness. Make it easier to read.",
	ModeAcademic: "Rewrite using formal academic language suitable for a high-impact journal.",
}

// Modes lists the rewrite modes in display order.
func Modes() []Mode {
	return []Mode{ModeGrammar, ModeClarity, ModeAcademic}
}

// ParseMode accepts a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := improveInstructions[mode]; !ok {
		return "", fmt.Errorf("unknown improve mode %q", s)
	}
	return mode, nil
}

func buildSummaryPrompt(text string) string {
	return "Summarize the following academic paper content in a concise abstract-like paragraph (max 150 words). " +
		"Focus on the problem, method, and results.\n\n" + text
}

// buildReviewPrompt submits at most limit characters of the paper. The
// truncation marker is only appended when something was actually cut.
func buildReviewPrompt(text string, limit int) string {
	clipped := llm.Clip(text, limit)
	if clipped != text {
		clipped += truncatedMarker
	}
	return "Perform a brief peer review of the following academic paper content. " +
		"Identify strengths, weaknesses, and provide an overall quality score out of 10.\n\n" +
		"Paper Text: " + clipped
}

func buildChatContext(content string, limit int) string {
	var b strings.Builder
	b.WriteString("Context: You are an intelligent research assistant helping a user understand the following academic paper. ")
	b.WriteString("Answer the user's questions based strictly on the paper content provided below. ")
	b.WriteString("If the answer is not in the paper, say so.\n\n")
	b.WriteString("--- PAPER START ---\n")
	b.WriteString(llm.Clip(content, limit))
	b.WriteString("\n--- PAPER END ---")
	return b.String()
}

// buildChatTurns rebuilds the whole conversation: a priming exchange that
// carries the paper, the prior history in order, then the new message.
func buildChatTurns(message, content string, history []llm.Turn, limit int) []llm.Turn {
	turns := make([]llm.Turn, 0, len(history)+3)
	turns = append(turns,
		llm.Turn{Role: llm.RoleUser, Text: buildChatContext(content, limit) + "\n\n" + chatGreeting},
		llm.Turn{Role: llm.RoleModel, Text: chatReady},
	)
	turns = append(turns, history...)
	turns = append(turns, llm.Turn{Role: llm.RoleUser, Text: message})
	return turns
}

func buildImprovePrompt(text string) string {
	return "Rewrite the following text:\n\n" + text
}
