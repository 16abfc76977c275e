package llm

import "strings"

// contextLimits maps model name prefixes to their advertised context
// window in tokens. Longest prefix wins; unknown models yield 0 and
// callers fall back to the fixed character cap.
var contextLimits = map[string]int{
	"gpt-4o":         128000,
	"gpt-4.1":        1047576,
	"gpt-4-turbo":    128000,
	"gpt-4":          8192,
	"gpt-3.5":        16385,
	"chatgpt-4o":     128000,
	"o1":             200000,
	"o3":             200000,
	"o4":             200000,
	"claude":         200000,
	"gemini-1.5-pro": 2097152,
	"gemini-1.5":     1048576,
	"gemini-2":       1048576,
	"gemini":         1048576,
	"llama-3.1":      131072,
	"llama-3.3":      131072,
	"llama-3":        8192,
	"mixtral":        32768,
	"gemma":          8192,
	"qwen":           32768,
	"deepseek":       128000,
	"grok":           131072,
}

// ContextLimit returns the token budget for a model, or 0 when unknown.
func ContextLimit(model string) int {
	lower := strings.ToLower(strings.TrimSpace(model))
	best := ""
	for prefix := range contextLimits {
		if strings.HasPrefix(lower, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return 0
	}
	return contextLimits[best]
}
