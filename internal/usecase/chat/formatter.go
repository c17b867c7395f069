package chat

import (
	"fmt"
	"strings"

	"github.com/cowlitea/cowlitea/internal/domain"
	"github.com/cowlitea/cowlitea/internal/repository/catalog"
)

// maxSummaryLen caps the review excerpt per match in the retrieval block.
const maxSummaryLen = 280

// formatMatches renders retrieved matches as the markdown block appended to
// the user's message before completion.
func formatMatches(matches []domain.Match) string {
	var b strings.Builder
	b.WriteString("\n\n**Here are the top matches based on your query:**\n\n")

	if len(matches) == 0 {
		b.WriteString("No catalog entries matched the query filters.\n\n")
		b.WriteString("Let me know if you need more information!")
		return b.String()
	}

	for i, m := range matches {
		name := m.Tag(catalog.FieldName)
		if name == "" {
			name = m.ID
		}
		fmt.Fprintf(&b, "%d. **%s**\n\n", i+1, name)

		if subject := m.Tag(catalog.FieldSubject); subject != "" {
			fmt.Fprintf(&b, "   - **Subject:** %s\n\n", subject)
		} else if location := m.Tag(catalog.FieldLocation); location != "" {
			fmt.Fprintf(&b, "   - **Location:** %s\n\n", location)
		}

		if stars, ok := m.Numeric(catalog.FieldStars); ok {
			fmt.Fprintf(&b, "   - **Rating:** %g/5\n\n", stars)
		}

		if summary := summarize(m.Tag(catalog.FieldReviews)); summary != "" {
			fmt.Fprintf(&b, "   - **Review Summary:** %s\n\n", summary)
		}
	}

	b.WriteString("Let me know if you need more information!")
	return b.String()
}

// summarize truncates review text at a word boundary.
func summarize(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxSummaryLen {
		return text
	}
	cut := text[:maxSummaryLen]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
