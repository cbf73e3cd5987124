// Package flags formats usage text for enumerated command-line flags.
package flags

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set"
)

const (
	choicePlaceholderTemplate = "<%s>"
	choiceSeparator           = "|"
	choiceUsageEmptyTemplate  = "`%s`"
	choiceUsageFullTemplate   = "`%s` %s"
)

// FormatChoiceUsage renders usage as `<a|B|c> description`, upper-casing the default choice.
// Choices are trimmed and deduplicated case-insensitively in order of appearance.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := fmt.Sprintf(choicePlaceholderTemplate, strings.Join(displayChoices(defaultChoice, choices), choiceSeparator))
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, trimmedDescription)
}

func displayChoices(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	seenChoices := mapset.NewThreadUnsafeSet()
	rendered := make([]string, 0, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(normalizedChoice) == 0 || !seenChoices.Add(normalizedChoice) {
			continue
		}

		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		rendered = append(rendered, trimmedChoice)
	}

	return rendered
}
