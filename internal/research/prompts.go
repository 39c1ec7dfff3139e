package research

import (
	"fmt"
	"strings"
)

func gradingPrompt(content, query string) string {
	return fmt.Sprintf(`You are an expert content grader. Grade how relevant this content is to answering the user's query.

USER QUERY: %s

CONTENT TO GRADE:
%s

GRADING INSTRUCTIONS:
- Analyze the entire content thoroughly
- Consider how well the content answers or relates to the query
- Ignore navigation menus, headers, and boilerplate text
- Focus on the substantive information that addresses the query
- Consider information quality, accuracy, and completeness

SCORING SCALE:
- 1.0 = Perfect match - content directly and comprehensively answers the query
- 0.8-0.9 = Highly relevant - content strongly relates and provides good information
- 0.6-0.7 = Moderately relevant - content relates but may be incomplete or tangential
- 0.4-0.5 = Somewhat relevant - content has some connection but limited usefulness
- 0.2-0.3 = Minimally relevant - content barely relates to the query
- 0.0-0.1 = Irrelevant - content does not relate to the query

Return ONLY a decimal number between 0.0 and 1.0 (e.g., 0.85):`, query, content)
}

func synthesisPrompt(institution, query, sourceMap, contentBlock string) string {
	return fmt.Sprintf(`You are an expert research assistant. Based on the %[1]s website content provided below, answer the user's question comprehensively.

Question: %[2]s

AVAILABLE SOURCES (Use these URLs for citations):
%[3]s

%[1]s WEBSITE CONTENT:
%[4]s

INSTRUCTIONS:
1. **Deduplicate Information**: Synthesize information. Do not repeat the same fact multiple times just because it appears in multiple sources.
2. **Rich Hyperlinks (CRITICAL)**:
   - You MUST create clickable links for specific forms, portals, or named pages mentioned in the text.
   - Example: "Complete the [Travel Authorization Request Form](https://forms.example.edu/travel)."
   - If the specific URL for a form is not explicitly in the text, use the main Source URL that mentions it.
3. **Inline Citations**:
   - Cite the source immediately after the fact using standard Markdown: "Fact here [Source N](source_url)."
   - Use the URL from the "AVAILABLE SOURCES" list above.
4. **Format**:
   - Use clear headings and bullet points.
   - **Do not** create a separate "Sources" list at the end; the inline links are sufficient.

COMPREHENSIVE ANSWER WITH HYPERLINKS:`, institution, query, sourceMap, contentBlock)
}

// NoResultsAnswer is the templated reply used when discovery finds nothing.
func NoResultsAnswer(query, institution, homeURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I apologize, but I couldn't find specific search results for '%s' on the %s website. This might be due to:\n\n", query, institution)
	b.WriteString("1. The search functionality may be temporarily unavailable\n")
	b.WriteString("2. The query might need to be rephrased\n")
	b.WriteString("3. Network connectivity issues\n\n")
	b.WriteString("Please try:\n")
	b.WriteString("- Rephrasing your query\n")
	b.WriteString("- Using more specific keywords\n")
	b.WriteString("- Checking back later if the issue persists")
	if homeURL != "" {
		fmt.Fprintf(&b, "\n\nYou can also browse the %s website directly: %s", institution, homeURL)
	}
	return b.String()
}
