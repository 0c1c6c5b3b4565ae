package answer

import (
	"fmt"
	"strings"

	"github.com/hyperjump/icebreaker/internal/llm"
)

// SummaryQuery drives retrieval for the summary task. It is never shown to the user.
const SummaryQuery = "Provide three interesting facts about this person's career or education. Keep each fact brief."

// InsufficientContext is the phrase the model is told to use when the context
// does not contain the answer.
const InsufficientContext = "I don't have enough information to answer that question based on the profile."

var numberWords = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}

func factsPrompt(contextBlock string, n int) string {
	var b strings.Builder
	writeContext(&b, contextBlock)
	fmt.Fprintf(&b, "Given the context information and not prior knowledge, provide %s interesting and specific facts about this person's career or education.\n", countWord(n))
	b.WriteString("Be detailed and cite actual information from the profile.\n\n")
	b.WriteString("Format your response as:\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%d. [%s fact]\n", i, ordinal(i))
	}
	b.WriteString("\nFacts:\n")
	return b.String()
}

func questionPrompt(contextBlock, question string) string {
	var b strings.Builder
	writeContext(&b, contextBlock)
	fmt.Fprintf(&b, "Given the context information and not prior knowledge, answer the question: %s\n\n", question)
	fmt.Fprintf(&b, "If the answer is not in the context, say %q\n\n", InsufficientContext)
	b.WriteString("Provide a clear, concise answer based only on the information provided.\n\n")
	b.WriteString("Answer:\n")
	return b.String()
}

func writeContext(b *strings.Builder, contextBlock string) {
	b.WriteString("Context information is below.\n")
	b.WriteString(llm.ContextDelimiter + "\n")
	b.WriteString(contextBlock + "\n")
	b.WriteString(llm.ContextDelimiter + "\n")
}

func countWord(n int) string {
	if n >= 0 && n < len(numberWords) {
		return numberWords[n]
	}
	return fmt.Sprint(n)
}

func ordinal(i int) string {
	switch i {
	case 1:
		return "First"
	case 2:
		return "Second"
	case 3:
		return "Third"
	case 4:
		return "Fourth"
	case 5:
		return "Fifth"
	}
	return fmt.Sprintf("%dth", i)
}
