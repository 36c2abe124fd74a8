package query

import (
	"context"
	"fmt"
	"log"
	"strings"
)

const snippetLen = 300

// composeAnswer turns aggregation results and retrieved documents into
// prose, reporting which path produced it. With a configured LLM
// provider the answer is generated from a grounded prompt; otherwise,
// or when generation fails, a rule-based answer is built from the same
// material.
func (e *Engine) composeAnswer(ctx context.Context, question string, mode Mode, agg *Aggregation, docs []RetrievedDocument) (answer, source string) {
	if e.provider != nil && e.provider.IsConfigured() {
		generated, err := e.provider.Generate(ctx, buildPrompt(question, agg, docs), e.maxTokens)
		if err == nil && strings.TrimSpace(generated) != "" {
			return strings.TrimSpace(generated), "llm"
		}
		if err != nil {
			log.Printf("LLM generation failed, using rule-based answer: %v", err)
		}
	}
	return ruleBasedAnswer(mode, agg, docs), "rule_based"
}

func buildPrompt(question string, agg *Aggregation, docs []RetrievedDocument) string {
	var b strings.Builder
	b.WriteString("You are an analyst for a regulatory document tracker. ")
	b.WriteString("Answer the question using only the context below. Be concise and factual.\n\n")

	if agg != nil {
		if agg.Err != "" {
			fmt.Fprintf(&b, "Analysis note: %s\n\n", agg.Err)
		} else if agg.Explanation != "" {
			fmt.Fprintf(&b, "Analysis: %s\n\n", agg.Explanation)
		}
	}

	if len(docs) > 0 {
		b.WriteString("Relevant documents:\n")
		for i, d := range docs {
			fmt.Fprintf(&b, "%d. %s (%s, %s, %s): %s\n",
				i+1, d.Title, d.Authority, d.Country, d.Date, snippet(d.Content))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\nAnswer:", question)
	return b.String()
}

func snippet(content string) string {
	if len(content) <= snippetLen {
		return content
	}
	return content[:snippetLen] + "..."
}

func ruleBasedAnswer(mode Mode, agg *Aggregation, docs []RetrievedDocument) string {
	var parts []string

	if agg != nil {
		if agg.Err != "" {
			parts = append(parts, fmt.Sprintf("I could not complete that analysis: %s.", agg.Err))
		} else if agg.Explanation != "" {
			parts = append(parts, agg.Explanation)
		}
	}

	if mode == ModeDocument || mode == ModeHybrid {
		if len(docs) > 0 {
			var b strings.Builder
			fmt.Fprintf(&b, "Found %d relevant documents.", len(docs))
			top := docs
			if len(top) > 3 {
				top = top[:3]
			}
			for _, d := range top {
				fmt.Fprintf(&b, " %q from %s", d.Title, d.Authority)
				if d.Date != "" {
					fmt.Fprintf(&b, " (%s)", d.Date)
				}
				b.WriteString(".")
			}
			parts = append(parts, b.String())
		} else if mode == ModeDocument {
			parts = append(parts, "I could not find documents matching your question. Try different keywords or broaden your filters.")
		}
	}

	if len(parts) == 0 {
		return "I could not find anything relevant to your question in the current dataset."
	}
	return strings.Join(parts, " ")
}
