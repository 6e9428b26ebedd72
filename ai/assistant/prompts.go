package assistant

import (
	"fmt"
	"strings"
)

// memoryHeader prefixes the recalled-memory block injected into prompts.
const memoryHeader = "Relevant long-term memories:"

// formatMemory renders recalled snippets as a bulleted block under the
// fixed header. Empty input yields an empty string.
func formatMemory(snippets []string) string {
	if len(snippets) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(memoryHeader)
	for _, s := range snippets {
		b.WriteString("\n- ")
		b.WriteString(s)
	}
	return b.String()
}

func ragSystemPrompt(memory, excerpts string) string {
	var b strings.Builder
	b.WriteString("You are a Machine Learning course assistant.\n")
	b.WriteString("Use the course excerpts AND the long-term memory if helpful.\n\n")
	if memory != "" {
		b.WriteString(memory)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Course excerpts:\n%s\n", excerpts)
	return b.String()
}

func webSystemPrompt(memory, bullets string) string {
	var b strings.Builder
	b.WriteString("You are a Machine Learning course assistant.\n")
	b.WriteString("The course materials did not cover this question, so answer from the web results below.\n")
	b.WriteString("Stay close to what the sources say.\n\n")
	if memory != "" {
		b.WriteString(memory)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Web results:\n%s\n", bullets)
	return b.String()
}

func degradedSystemPrompt(memory string) string {
	var b strings.Builder
	b.WriteString("You are a Machine Learning course assistant.\n")
	b.WriteString("Neither the course materials nor web search returned anything for this question.\n")
	b.WriteString("Answer from general knowledge, and clearly state that you could not verify the answer against the course materials.\n")
	if memory != "" {
		b.WriteString("\n")
		b.WriteString(memory)
		b.WriteString("\n")
	}
	return b.String()
}

func generalSystemPrompt(memory string) string {
	var b strings.Builder
	b.WriteString("You are a Machine Learning teaching assistant. ")
	b.WriteString("Explain clearly with examples, without using course documents directly. ")
	b.WriteString("Flag anything you are not certain about.")
	if memory != "" {
		b.WriteString("\n\nHere is long-term memory about this student or past sessions:\n")
		b.WriteString(memory)
	}
	return b.String()
}
