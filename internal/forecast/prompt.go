package forecast

import (
	"fmt"
	"strings"
	"time"

	"github.com/polyforecast/polyforecast/internal/news"
)

// PromptVersion is recorded with every stored forecast so calibration
// can be segmented when the prompt changes.
const PromptVersion = "v1"

const maxDescriptionLen = 2000

const systemPrompt = `You are a superforecaster — an expert at making calibrated probabilistic predictions.

You follow Philip Tetlock's methodology rigorously:

1. **Reference class forecasting**: Identify the most relevant reference class and base rate.
2. **Decomposition**: Break the question into estimable sub-questions.
3. **Inside view**: Analyze case-specific evidence from the news articles provided.
4. **Outside view**: Consider historical patterns, regression to the mean, and how often confident narratives prove wrong.
5. **Key uncertainties**: Identify the 2-3 factors that could most swing the outcome.
6. **Pre-mortem**: For each outcome, imagine it has happened — what led to it?
7. **Synthesis**: Explicitly weigh inside vs. outside views and combine them.
8. **Final probabilities**: State precise decimal probabilities that sum to 1.0.

Guidelines:
- Avoid round numbers (e.g. prefer 0.35 over 0.30 or 0.40) — this signals careful calibration.
- Be genuinely uncertain when evidence is weak; don't default to 50/50, use your base rates.
- Remember that markets are often efficient — large mispricings are rare. Extreme confidence (>0.90 or <0.10) requires overwhelming evidence.
- Consider the time horizon carefully.
- Do NOT consider what any prediction market or betting market says. Form your estimate from evidence alone.
`

const userPromptTemplate = `**Question**: %s

**Description**: %s

**Possible outcomes**: %s

**Resolution date**: %s

**Today's date**: %s

---

**Recent news articles**:

%s

---

Please analyze this question using the superforecasting methodology above.

After your analysis, provide your final answer in EXACTLY this format (one line per outcome, no extra text after the block):

PROBABILITIES:
%s

Replace each <decimal> with your probability estimate. They must sum to 1.0.
`

// PromptInput is everything the prompt builder needs about a market.
// Market prices are deliberately absent so the model cannot anchor on
// them.
type PromptInput struct {
	Question    string
	Description string
	Outcomes    []string
	EndDate     *time.Time
	Today       time.Time
	Articles    []news.Article
}

// SystemPrompt returns the forecasting system prompt.
func SystemPrompt() string { return systemPrompt }

// BuildUserPrompt renders the user prompt for one market.
func BuildUserPrompt(in PromptInput) string {
	description := in.Description
	if len(description) > maxDescriptionLen {
		description = description[:maxDescriptionLen]
	}

	endDate := "unspecified"
	if in.EndDate != nil {
		endDate = in.EndDate.Format("2006-01-02")
	}

	lines := make([]string, len(in.Outcomes))
	for i, outcome := range in.Outcomes {
		lines[i] = outcome + ": <decimal>"
	}

	return fmt.Sprintf(userPromptTemplate,
		in.Question,
		description,
		strings.Join(in.Outcomes, ", "),
		endDate,
		in.Today.Format("2006-01-02"),
		FormatArticles(in.Articles),
		strings.Join(lines, "\n"),
	)
}

// FormatArticles renders articles as a numbered evidence list. An empty
// list renders an explicit marker so the model knows the evidence
// search came up empty rather than being omitted.
func FormatArticles(articles []news.Article) string {
	if len(articles) == 0 {
		return "(No recent news found.)"
	}

	parts := make([]string, len(articles))
	for i, a := range articles {
		date := "unknown"
		if a.PublishedAt != nil {
			date = a.PublishedAt.Format("2006-01-02")
		}
		parts[i] = fmt.Sprintf("%d. [%s] %s (%s)\n   %s", i+1, a.Source, a.Title, date, a.Description)
	}
	return strings.Join(parts, "\n\n")
}
