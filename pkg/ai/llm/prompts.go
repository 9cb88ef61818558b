package llm

import (
	"fmt"
	"sort"
	"strings"
)

// AssistantSystemPrompt is the base system prompt of the CRM assistant
const AssistantSystemPrompt = `You are the assistant built into a real-estate CRM used by sales agents.

You help agents with:
- Prioritising leads and follow-ups
- Summarising the state of their pipeline
- Drafting short messages to buyers and sellers
- Explaining deal stages (offer, inspection, legal, payment, handover)

Guidelines:
1. Only rely on the context provided with the question; say so when it is not enough
2. Keep answers short and practical
3. Never invent names, prices or addresses`

// ContextPrompt renders the UI snapshot sent with a chat message
func ContextPrompt(page string, counts map[string]int, ids []string) string {
	var b strings.Builder
	if page != "" {
		fmt.Fprintf(&b, "Current page: %s\n", page)
	}
	if len(counts) > 0 {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("Counts:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %d\n", k, counts[k])
		}
	}
	if len(ids) > 0 {
		fmt.Fprintf(&b, "Selected record ids: %s\n", strings.Join(ids, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// AssistantPrompt joins the base prompt with the rendered context
func AssistantPrompt(context string) string {
	if context == "" {
		return AssistantSystemPrompt
	}
	return AssistantSystemPrompt + "\n\nContext:\n" + context
}
