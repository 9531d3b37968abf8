package usecase

import (
	"strings"

	"element-agent/internal/domain"
)

// buildPromptMessages assembles the message list sent to the completion
// endpoint: a fixed policy prompt, the operator-configured system prompt
// (held in the parameter store, never persisted with the conversation),
// completed prior turns, and the new question.
func buildPromptMessages(systemPrompt, question string, history []domain.Message) []domain.ChatMessage {
	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: buildPolicyPrompt()},
		{Role: domain.RoleSystem, Content: normalizePromptInput(systemPrompt)},
	}

	for _, m := range history {
		messages = append(messages, historyToPromptMessages(m)...)
	}

	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: question,
	})
	return messages
}

func buildPolicyPrompt() string {
	return strings.Join([]string{
		"Role:",
		"You are the chemistry assistant embedded in an interactive periodic-table browser.",
		"",
		"Task:",
		"Answer questions about chemical elements, their properties, and how they compare.",
		"",
		"Behavior Rules:",
		behaviorRules(),
	}, "\n")
}

func historyToPromptMessages(m domain.Message) []domain.ChatMessage {
	if m.Status != statusComplete {
		return nil
	}
	question := strings.TrimSpace(m.Question)
	answer := strings.TrimSpace(m.Answer)
	if question == "" || answer == "" {
		return nil
	}
	return []domain.ChatMessage{
		{Role: domain.RoleUser, Content: question},
		{Role: domain.RoleAssistant, Content: answer},
	}
}

func behaviorRules() string {
	return strings.Join([]string{
		"1) Answer only the current user question in this request.",
		"2) Keep replies short enough for a chat bubble; a few sentences at most.",
		"3) Use a markdown table when comparing two or more elements.",
		"4) Plain markdown only: tables, bold, italics, inline code, short bullet lists.",
		"5) Do not open with filler like \"Great question\".",
		"6) If the question is not about chemistry or the periodic table, say so briefly.",
	}, "\n")
}

func normalizePromptInput(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}
