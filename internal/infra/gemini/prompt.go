package gemini

import (
	"fmt"
	"strings"

	"exodus-quiz-service/internal/domain"
)

const promptTemplate = `Generate %d multiple-choice questions in %s about the Old Testament book of Exodus, chapters 1 to 20.
Difficulty: %s.

Requirements:
1. Every question must be based only on Exodus 1-20 (for example the birth of Moses, the ten plagues, crossing the Red Sea, the Ten Commandments, the covenant at Sinai).
2. Every question has exactly 4 options.
3. Give the correct Bible reference (for example: Exodus 12:13).
4. Keep the explanation short and instructive.
5. Make the questions lively and fun rather than dry: ask about details, dialogue, numbers or specific objects.
6. The output must be strict JSON.
`

const avoidTemplate = `
IMPORTANT: do not generate questions that repeat or closely resemble any of these:
%s
`

// BuildPrompt renders the generation prompt; only the last MaxExcludeTexts excluded texts are included.
func BuildPrompt(req domain.GenerationRequest, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptTemplate, req.Count, language, req.Difficulty.Label())

	exclude := req.ExcludeTexts
	if len(exclude) > domain.MaxExcludeTexts {
		exclude = exclude[len(exclude)-domain.MaxExcludeTexts:]
	}
	if len(exclude) > 0 {
		fmt.Fprintf(&b, avoidTemplate, strings.Join(exclude, "; "))
	}
	return b.String()
}

// responseSchema constrains the model to an array of question records.
func responseSchema() map[string]any {
	return map[string]any{
		"type": "ARRAY",
		"items": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "STRING",
					"description": "The question text",
				},
				"options": map[string]any{
					"type":        "ARRAY",
					"items":       map[string]any{"type": "STRING"},
					"description": "An array of 4 possible answers",
				},
				"correctAnswerIndex": map[string]any{
					"type":        "INTEGER",
					"description": "The zero-based index of the correct answer (0-3)",
				},
				"bibleReference": map[string]any{
					"type":        "STRING",
					"description": "The Bible verse reference",
				},
				"explanation": map[string]any{
					"type":        "STRING",
					"description": "A brief explanation of why the answer is correct",
				},
			},
			"required": []string{"text", "options", "correctAnswerIndex", "bibleReference", "explanation"},
		},
	}
}
