package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/crisp-ai/interview-assistant/models"
	"google.golang.org/genai"
)

const (
	ModelName     = "gemini-2.5-flash"
	aiCallTimeout = 15 * time.Second
)

// AICollaborator produces question text, answer scores and interview
// summaries. Implementations must degrade to deterministic fallbacks on
// failure instead of returning errors: the interview flow never blocks on or
// surfaces an upstream AI problem.
type AICollaborator interface {
	GenerateQuestion(ctx context.Context, number int, difficulty models.Difficulty) string
	ScoreAnswer(ctx context.Context, question, answer string, difficulty models.Difficulty) float64
	Summarize(ctx context.Context, candidateName string, finalScore float64, transcript []TranscriptEntry) string
}

// TranscriptEntry is one question/answer pair of a finished interview,
// handed to the summarizer.
type TranscriptEntry struct {
	Question   string
	Answer     string
	Score      float64
	Difficulty models.Difficulty
}

// GeminiCollaborator implements AICollaborator against the Gemini API.
// With no API key (or a failed client init) it runs entirely on the
// fallback paths, which keeps the whole interview flow usable offline.
type GeminiCollaborator struct {
	genaiClient *genai.Client
}

func NewGeminiCollaborator(apiKey string) *GeminiCollaborator {
	if apiKey == "" {
		slog.Warn("No Gemini API key configured, AI collaborator will use fallbacks only")
		return &GeminiCollaborator{}
	}

	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		slog.Error("Failed to create genai client, falling back to deterministic responses", "error", err)
		return &GeminiCollaborator{}
	}

	return &GeminiCollaborator{genaiClient: genaiClient}
}

// generate runs one bounded-latency content generation call.
func (g *GeminiCollaborator) generate(ctx context.Context, prompt string) (string, error) {
	if g.genaiClient == nil {
		return "", fmt.Errorf("genai client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, aiCallTimeout)
	defer cancel()

	result, err := g.genaiClient.Models.GenerateContent(
		ctx,
		ModelName,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return strings.TrimSpace(result.Text()), nil
}

// GenerateQuestion returns the question text for one interview slot.
func (g *GeminiCollaborator) GenerateQuestion(ctx context.Context, number int, difficulty models.Difficulty) string {
	prompt := fmt.Sprintf(`Generate a technical interview question for a Full Stack Developer position (React/Node.js).

Question Number: %d
Difficulty: %s

Please generate a specific, practical question that tests:
- React concepts (components, hooks, state management)
- Node.js/Express concepts (APIs, middleware, databases)
- General programming concepts

Make the question clear, specific, and appropriate for %s level.
Return only the question text, no additional formatting.`, number, difficulty, difficulty)

	text, err := g.generate(ctx, prompt)
	if err != nil || text == "" {
		slog.Warn("Question generation failed, using fallback bank", "error", err, "number", number, "difficulty", difficulty)
		return FallbackQuestion(number, difficulty)
	}

	slog.Info("Question generated", "number", number, "difficulty", difficulty, "length", len(text))
	return text
}

// ScoreAnswer scores an answer on [1,10]. The model response is parsed
// strictly: the first integer substring must fall inside the range, anything
// else resolves to the difficulty-banded fallback generator.
func (g *GeminiCollaborator) ScoreAnswer(ctx context.Context, question, answer string, difficulty models.Difficulty) float64 {
	prompt := fmt.Sprintf(`Score this interview answer on a scale of 1-10.

Question: %s
Answer: %s
Difficulty: %s

Consider:
- Technical accuracy
- Problem-solving approach
- Code quality (if applicable)
- Communication clarity
- Completeness of answer

Return only a number between 1-10.`, question, answer, difficulty)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		slog.Warn("Answer scoring failed, using fallback score", "error", err, "difficulty", difficulty)
		return FallbackScore(difficulty)
	}

	score, err := ParseScore(text)
	if err != nil {
		slog.Warn("Unparseable score response, using fallback score", "error", err, "response", text)
		return FallbackScore(difficulty)
	}

	return score
}

// Summarize produces the narrative performance summary for a completed
// interview.
func (g *GeminiCollaborator) Summarize(ctx context.Context, candidateName string, finalScore float64, transcript []TranscriptEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Generate a comprehensive interview summary for %s who scored %.2f/10.

Interview Details:
- Final Score: %.2f/10
- Total Questions: %d

Question-by-Question Performance:
`, candidateName, finalScore, finalScore, len(transcript))

	for i, entry := range transcript {
		fmt.Fprintf(&b, "\nQ%d (%s): %s\nAnswer: %s\nScore: %.1f/10\n",
			i+1, strings.ToUpper(string(entry.Difficulty)), entry.Question, entry.Answer, entry.Score)
	}

	b.WriteString(`
Please provide a professional summary including:
1. Overall assessment of technical knowledge
2. Key strengths demonstrated
3. Areas for improvement
4. Recommendation for hiring
5. Specific technical skills evaluation

Keep it concise but comprehensive (200-300 words).`)

	text, err := g.generate(ctx, b.String())
	if err != nil || text == "" {
		slog.Warn("Summary generation failed, using fallback summary", "error", err, "candidate", candidateName)
		return FallbackSummary(candidateName, finalScore)
	}

	slog.Info("Summary generated", "candidate", candidateName, "length", len(text))
	return text
}

var scoreRe = regexp.MustCompile(`\d+`)

// ParseScore extracts the first integer substring from a model response and
// rejects anything outside [1,10].
func ParseScore(text string) (float64, error) {
	match := scoreRe.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("no numeric score in response")
	}

	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid score %q: %w", match, err)
	}
	if score < 1 || score > 10 {
		return 0, fmt.Errorf("score %v out of range [1,10]", score)
	}

	return score, nil
}

// Fallback question banks, indexed by (number-1) mod length per difficulty.
var fallbackQuestions = map[models.Difficulty][]string{
	models.DifficultyEasy: {
		"What is React and what are its main advantages?",
		"Explain the difference between state and props in React.",
		"What is Node.js and what is it commonly used for?",
		"What is the difference between GET and POST HTTP methods?",
	},
	models.DifficultyMedium: {
		"How would you implement state management in a large React application?",
		"Explain the concept of middleware in Express.js and provide an example.",
		"How would you handle authentication in a Node.js application?",
		"What are React hooks and how do they differ from class components?",
	},
	models.DifficultyHard: {
		"Design a scalable architecture for a real-time chat application using React and Node.js.",
		"How would you implement server-side rendering (SSR) in a React application?",
		"Explain the event loop in Node.js and how it handles asynchronous operations.",
		"How would you optimize the performance of a React application with thousands of components?",
	},
}

// FallbackQuestion returns the canned question for a slot when the AI service
// is unavailable.
func FallbackQuestion(number int, difficulty models.Difficulty) string {
	bank, ok := fallbackQuestions[difficulty]
	if !ok {
		bank = fallbackQuestions[models.DifficultyEasy]
	}
	return bank[(number-1)%len(bank)]
}

// FallbackScore draws a difficulty-banded pseudo-random score, rounded to one
// decimal: easy [6,8], medium [5,7], hard [4,6].
func FallbackScore(difficulty models.Difficulty) float64 {
	var low, high float64
	switch difficulty {
	case models.DifficultyEasy:
		low, high = 6, 8
	case models.DifficultyMedium:
		low, high = 5, 7
	default:
		low, high = 4, 6
	}
	score := low + rand.Float64()*(high-low)
	return float64(int(score*10+0.5)) / 10
}

// FallbackSummary is the templated summary used when the AI service is
// unavailable.
func FallbackSummary(candidateName string, finalScore float64) string {
	return fmt.Sprintf("Interview completed successfully. %s scored %.2f/10. Detailed analysis requires AI service.", candidateName, finalScore)
}
