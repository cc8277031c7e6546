package prompt

import (
	"fmt"
	"strings"
)

// GestureClause is part of every request regardless of user input.
const GestureClause = "CRITICAL VISUAL REQUIREMENT: The Capybara is visibly raising its middle finger directly at the viewer. " +
	"The gesture must be clear, prominent, and unmistakable. The Capybara has a rude attitude."

const subject = "Subject: A detailed, high-quality image of a Capybara."

type Style string

func (s Style) String() string { return string(s) }

// Enforce builds the text sent to the image model. The style label is
// passed through verbatim.
func Enforce(userPrompt string, style Style) string {
	return strings.Join([]string{
		subject,
		fmt.Sprintf("Context/Outfit/Activity: %s.", strings.TrimSpace(userPrompt)),
		GestureClause,
		fmt.Sprintf("Style: %s. High resolution, artistic composition.", style),
	}, "\n")
}
