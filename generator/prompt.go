package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"racedesk/document"
)

// Prompt 表示发送给 LLM 的内容。System 与 User 在单文本模型中拼接发送。
type Prompt struct {
	System string
	User   string
}

// Text joins the prompt into the single text body the model receives.
func (p Prompt) Text() string {
	if p.System == "" {
		return p.User
	}
	return p.System + "\n\n" + p.User
}

const brandVoice = `You are the editorial assistant for Evolution Stables, a premium but understated New Zealand racing operation.
You turn raw race reports into short, clear, investor-friendly editorial summaries.

BRAND VOICE
- Understated, direct, grounded. Short sentences, plain language.
- Sound like a trainer explaining the run, not a journalist.
- No hype, no drama, no big adjectives.
- Include where present: race situation, tactics, trainer/jockey comment, behaviour, track conditions, campaign context, outlook.`

const outputContract = `OUTPUT FORMAT
Respond with ONE JSON object and nothing else. No markdown, no backticks, no commentary.
Never include styling, class names, HTML or any markup.
{
  "headline": "Short, factual. '{Horse Name}: {plain summary}'",
  "subheadline": "One factual line.",
  "body": "3-5 short paragraphs separated by blank lines.",
  "quote": "The single most important trainer or jockey sentence.",
  "quoteAttribution": "Who said the quote.",
  "footer": "Closing line, may be empty."
}`

func systemPrompt(banned []string) string {
	var sb strings.Builder
	sb.WriteString(brandVoice)
	if len(banned) > 0 {
		sb.WriteString("\n\nBANNED WORDS AND PHRASES\nNever use any of the following:\n")
		for _, w := range banned {
			sb.WriteString("- " + w + "\n")
		}
	}
	sb.WriteString("\n")
	sb.WriteString(outputContract)
	return sb.String()
}

// BuildInitialPrompt 根据原始赛后记录生成首稿提示词。
func BuildInitialPrompt(rawText string, targetWords int, banned []string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are generating NEW content from a raw race report.\n")
	if targetWords > 0 {
		sb.WriteString(fmt.Sprintf("Target body length (soft): ~%d words.\n", targetWords))
	}
	sb.WriteString("If something is missing from the report, leave that field as an empty string.\n\n")
	sb.WriteString("RAW REPORT:\n")
	sb.WriteString(strings.TrimSpace(rawText))
	sb.WriteString("\n")
	return Prompt{System: systemPrompt(banned), User: sb.String()}
}

// BuildRevisionPrompt 生成修订提示词：嵌入当前稿件、目标字段与选中文本。
func BuildRevisionPrompt(current document.Document, target document.Target, instruction, selection string, banned []string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are MODIFYING existing editorial content based on operator instructions.\n")
	sb.WriteString("- Preserve structure and facts unless the instruction says otherwise.\n")
	sb.WriteString("- Apply changes with a light touch.\n\n")

	if field, ok := target.Field(); ok {
		keys := []string{string(field)}
		if partner, ok := field.Partner(); ok {
			keys = append(keys, string(partner))
		}
		sb.WriteString(fmt.Sprintf("TARGET FIELD: %s\n", field))
		sb.WriteString(fmt.Sprintf("Change only this field. Return a JSON object with the key(s): %s.\n\n", strings.Join(keys, ", ")))
	} else {
		sb.WriteString("TARGET: whole document. Return the full updated JSON object.\n\n")
	}

	sb.WriteString("SELECTED TEXT (if any):\n")
	if s := strings.TrimSpace(selection); s != "" {
		sb.WriteString(s)
	} else {
		sb.WriteString("None provided")
	}
	sb.WriteString("\n\n")

	sb.WriteString("CURRENT CONTENT (JSON):\n")
	sb.WriteString(snapshotJSON(current))
	sb.WriteString("\n\nOPERATOR INSTRUCTIONS:\n")
	sb.WriteString(strings.TrimSpace(instruction))
	sb.WriteString("\n")

	return Prompt{System: systemPrompt(banned), User: sb.String()}
}

// snapshotJSON serializes only the model-facing fields.
func snapshotJSON(d document.Document) string {
	m := make(map[string]string, len(document.EditorialFields))
	for _, f := range document.EditorialFields {
		m[string(f)] = d.Get(f)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
