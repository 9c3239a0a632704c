package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/crisp-ai/interview-assistant/models"
	"github.com/crisp-ai/interview-assistant/repository"
)

// InterviewEngine owns the interview lifecycle: it orders questions by
// escalating difficulty, scores answers through the AI collaborator, detects
// completion and supports pause/resume across disconnects.
type InterviewEngine struct {
	store repository.Store
	ai    AICollaborator
}

func NewInterviewEngine(store repository.Store, ai AICollaborator) *InterviewEngine {
	return &InterviewEngine{store: store, ai: ai}
}

// QuestionPayload is the question representation returned to clients,
// including the time limit derived from its difficulty.
type QuestionPayload struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Difficulty models.Difficulty `json:"difficulty"`
	Number     int               `json:"number"`
	TimeLimit  int               `json:"time_limit"`
}

func questionPayload(q *models.Question) *QuestionPayload {
	return &QuestionPayload{
		ID:         q.ID,
		Text:       q.QuestionText,
		Difficulty: q.Difficulty,
		Number:     q.QuestionNumber,
		TimeLimit:  q.Difficulty.TimeLimit(),
	}
}

// StartResult is the outcome of StartInterview.
type StartResult struct {
	InterviewID string
	Candidate   *models.Candidate
	Question    *QuestionPayload
}

// SubmitResult is the outcome of SubmitAnswer: either the next question or
// the completion payload.
type SubmitResult struct {
	Complete     bool
	Summary      string
	FinalScore   float64
	NextQuestion *QuestionPayload
}

// Progress describes how far an interview has advanced.
type Progress struct {
	TotalQuestions     int     `json:"total_questions"`
	AnsweredQuestions  int     `json:"answered_questions"`
	CurrentQuestion    int     `json:"current_question"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// StartInterview resolves or creates the candidate by email, opens a new
// in_progress interview and persists question #1.
func (e *InterviewEngine) StartInterview(ctx context.Context, name, email, phone string) (*StartResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: candidate name and email are required", ErrValidation)
	}

	candidate, err := e.findOrCreateCandidate(ctx, email, name, strings.TrimSpace(phone))
	if err != nil {
		return nil, err
	}

	interview := &models.Interview{
		Status:      models.StatusInProgress,
		CandidateID: candidate.ID,
		StartedAt:   time.Now().UTC(),
	}
	if err := e.store.CreateInterview(ctx, interview); err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}

	question := &models.Question{
		InterviewID:    interview.ID,
		QuestionText:   e.ai.GenerateQuestion(ctx, 1, models.DifficultyEasy),
		Difficulty:     models.DifficultyEasy,
		QuestionNumber: 1,
	}
	if err := e.store.CreateQuestion(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create first question: %w", err)
	}

	slog.Info("Interview started", "interview_id", interview.ID, "candidate_id", candidate.ID)
	return &StartResult{
		InterviewID: interview.ID,
		Candidate:   candidate,
		Question:    questionPayload(question),
	}, nil
}

// findOrCreateCandidate looks a candidate up by unique email and creates one
// when absent. Idempotent: repeat starts with the same email reuse the
// record and never refresh name or phone.
func (e *InterviewEngine) findOrCreateCandidate(ctx context.Context, email, name, phone string) (*models.Candidate, error) {
	candidate, err := e.store.GetCandidateByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up candidate: %w", err)
	}
	if candidate != nil {
		return candidate, nil
	}

	candidate = &models.Candidate{Name: name, Email: email, Phone: phone}
	if err := e.store.CreateCandidate(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	return candidate, nil
}

// SubmitAnswer scores and persists one answer, then either finalizes the
// interview (6th answer) or advances to the next question. The
// read-modify-write after scoring runs in a single store transaction so
// concurrent submissions cannot duplicate a slot or double-finalize.
func (e *InterviewEngine) SubmitAnswer(ctx context.Context, questionID, answerText string, timeTaken int) (*SubmitResult, error) {
	question, err := e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question == nil {
		return nil, fmt.Errorf("%w: question %s", ErrNotFound, questionID)
	}
	if timeTaken < 0 {
		timeTaken = 0
	}

	score := e.ai.ScoreAnswer(ctx, question.QuestionText, answerText, question.Difficulty)

	var result *SubmitResult
	err = e.store.Transaction(ctx, func(tx repository.Store) error {
		existing, err := tx.GetAnswerByQuestion(ctx, question.ID)
		if err != nil {
			return fmt.Errorf("failed to check existing answer: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: question %s already answered", ErrValidation, question.ID)
		}

		answer := &models.Answer{
			QuestionID: question.ID,
			AnswerText: answerText,
			Score:      score,
			TimeTaken:  timeTaken,
		}
		if err := tx.CreateAnswer(ctx, answer); err != nil {
			return fmt.Errorf("failed to create answer: %w", err)
		}

		answered, err := tx.CountAnswers(ctx, question.InterviewID)
		if err != nil {
			return fmt.Errorf("failed to count answers: %w", err)
		}

		if answered >= models.TotalQuestions {
			result, err = e.finalizeInterview(ctx, tx, question.InterviewID)
			return err
		}

		result, err = e.advanceInterview(ctx, tx, question.InterviewID, int(answered)+1)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// finalizeInterview transitions the interview to completed, stamps
// completed_at and persists the narrative summary.
func (e *InterviewEngine) finalizeInterview(ctx context.Context, tx repository.Store, interviewID string) (*SubmitResult, error) {
	interview, err := tx.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	if interview == nil {
		return nil, fmt.Errorf("%w: interview %s", ErrNotFound, interviewID)
	}

	candidate, err := tx.GetCandidateByID(ctx, interview.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	candidateName := "Candidate"
	if candidate != nil {
		candidateName = candidate.Name
	}

	transcript, finalScore, err := e.buildTranscript(ctx, tx, interviewID)
	if err != nil {
		return nil, err
	}

	summary := e.ai.Summarize(ctx, candidateName, finalScore, transcript)

	now := time.Now().UTC()
	interview.Status = models.StatusCompleted
	interview.CompletedAt = &now
	interview.Summary = summary
	if err := tx.SaveInterview(ctx, interview); err != nil {
		return nil, fmt.Errorf("failed to finalize interview: %w", err)
	}

	slog.Info("Interview completed", "interview_id", interviewID, "final_score", finalScore)
	return &SubmitResult{Complete: true, Summary: summary, FinalScore: finalScore}, nil
}

// advanceInterview persists the next question slot. If a crash between
// answer and question persistence left the slot already populated, the
// existing question is reused instead of violating the unique slot index.
func (e *InterviewEngine) advanceInterview(ctx context.Context, tx repository.Store, interviewID string, nextNumber int) (*SubmitResult, error) {
	existing, err := tx.GetQuestionByNumber(ctx, interviewID, nextNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check next question slot: %w", err)
	}
	if existing != nil {
		return &SubmitResult{NextQuestion: questionPayload(existing)}, nil
	}

	difficulty := models.DifficultyForNumber(nextNumber)
	question := &models.Question{
		InterviewID:    interviewID,
		QuestionText:   e.ai.GenerateQuestion(ctx, nextNumber, difficulty),
		Difficulty:     difficulty,
		QuestionNumber: nextNumber,
	}
	if err := tx.CreateQuestion(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create next question: %w", err)
	}

	return &SubmitResult{NextQuestion: questionPayload(question)}, nil
}

// buildTranscript assembles the ordered question/answer/score transcript and
// the final score for an interview.
func (e *InterviewEngine) buildTranscript(ctx context.Context, tx repository.Store, interviewID string) ([]TranscriptEntry, float64, error) {
	questions, err := tx.ListQuestions(ctx, interviewID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	var (
		transcript []TranscriptEntry
		total      float64
		answered   int
	)
	for i := range questions {
		entry := TranscriptEntry{
			Question:   questions[i].QuestionText,
			Difficulty: questions[i].Difficulty,
		}
		answer, err := tx.GetAnswerByQuestion(ctx, questions[i].ID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to get answer: %w", err)
		}
		if answer != nil {
			entry.Answer = answer.AnswerText
			entry.Score = answer.Score
			total += answer.Score
			answered++
		}
		transcript = append(transcript, entry)
	}

	return transcript, roundScore(total, answered), nil
}

// GetFinalScore returns the mean of recorded answer scores for an interview,
// rounded to two decimals, 0 when no answers exist. Pure read.
func (e *InterviewEngine) GetFinalScore(ctx context.Context, interviewID string) (float64, error) {
	answers, err := e.store.ListAnswers(ctx, interviewID)
	if err != nil {
		return 0, fmt.Errorf("failed to list answers: %w", err)
	}

	var total float64
	for i := range answers {
		total += answers[i].Score
	}
	return roundScore(total, len(answers)), nil
}

func roundScore(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(total/float64(count)*100) / 100
}

// FindUnfinishedInterview returns the most recent in_progress interview and
// its candidate, scoped to candidateID when one is supplied. Nil results
// mean nothing to resume.
func (e *InterviewEngine) FindUnfinishedInterview(ctx context.Context, candidateID string) (*models.Interview, *models.Candidate, error) {
	interview, err := e.store.FindUnfinishedInterview(ctx, candidateID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find unfinished interview: %w", err)
	}
	if interview == nil {
		return nil, nil, nil
	}

	candidate, err := e.store.GetCandidateByID(ctx, interview.CandidateID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return interview, candidate, nil
}

// ResumeInterview returns the lowest-numbered question of an interview that
// has no answer yet, with its time limit. Status is not mutated; the explicit
// pause/unpause toggle is a separate operation.
func (e *InterviewEngine) ResumeInterview(ctx context.Context, interviewID string) (*QuestionPayload, error) {
	interview, err := e.store.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	if interview == nil {
		return nil, fmt.Errorf("%w: interview %s", ErrNotFound, interviewID)
	}

	questions, err := e.store.ListQuestions(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions for interview %s", ErrNotFound, interviewID)
	}

	sort.Slice(questions, func(i, j int) bool {
		return questions[i].QuestionNumber < questions[j].QuestionNumber
	})

	for i := range questions {
		answer, err := e.store.GetAnswerByQuestion(ctx, questions[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get answer: %w", err)
		}
		if answer == nil {
			slog.Info("Interview resumed", "interview_id", interviewID, "question_number", questions[i].QuestionNumber)
			return questionPayload(&questions[i]), nil
		}
	}

	return nil, fmt.Errorf("%w: no unanswered questions for interview %s", ErrNotFound, interviewID)
}

// PauseInterview switches an interview to paused. Returns false without
// error when the interview is unknown.
func (e *InterviewEngine) PauseInterview(ctx context.Context, interviewID string) (bool, error) {
	return e.setStatus(ctx, interviewID, models.StatusPaused)
}

// UnpauseInterview switches a paused interview back to in_progress.
func (e *InterviewEngine) UnpauseInterview(ctx context.Context, interviewID string) (bool, error) {
	return e.setStatus(ctx, interviewID, models.StatusInProgress)
}

func (e *InterviewEngine) setStatus(ctx context.Context, interviewID, status string) (bool, error) {
	interview, err := e.store.GetInterview(ctx, interviewID)
	if err != nil {
		return false, fmt.Errorf("failed to get interview: %w", err)
	}
	if interview == nil {
		return false, nil
	}

	interview.Status = status
	if err := e.store.SaveInterview(ctx, interview); err != nil {
		return false, fmt.Errorf("failed to update interview status: %w", err)
	}

	slog.Info("Interview status changed", "interview_id", interviewID, "status", status)
	return true, nil
}

// GetProgress reports how many of the persisted questions have answers and
// the resulting completion percentage.
func (e *InterviewEngine) GetProgress(ctx context.Context, interviewID string) (*Progress, error) {
	interview, err := e.store.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	if interview == nil {
		return nil, fmt.Errorf("%w: interview %s", ErrNotFound, interviewID)
	}

	questions, err := e.store.ListQuestions(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	answered, err := e.store.CountAnswers(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}

	return &Progress{
		TotalQuestions:     len(questions),
		AnsweredQuestions:  int(answered),
		CurrentQuestion:    int(answered) + 1,
		ProgressPercentage: float64(answered) / models.TotalQuestions * 100,
	}, nil
}

// CandidateSummary is one row of the ranked candidate list.
type CandidateSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	FinalScore  float64    `json:"final_score"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ListCandidateSummaries returns every candidate with at least one interview,
// scored by their latest interview and sorted by final score descending.
func (e *InterviewEngine) ListCandidateSummaries(ctx context.Context) ([]CandidateSummary, error) {
	candidates, err := e.store.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	summaries := make([]CandidateSummary, 0, len(candidates))
	for i := range candidates {
		interview, err := e.store.LatestInterviewByCandidate(ctx, candidates[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest interview: %w", err)
		}
		if interview == nil {
			continue
		}

		finalScore, err := e.GetFinalScore(ctx, interview.ID)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, CandidateSummary{
			ID:          candidates[i].ID,
			Name:        candidates[i].Name,
			Email:       candidates[i].Email,
			Phone:       candidates[i].Phone,
			FinalScore:  finalScore,
			Status:      interview.Status,
			CompletedAt: interview.CompletedAt,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].FinalScore > summaries[j].FinalScore
	})
	return summaries, nil
}

// QuestionDetail is one fully-resolved question row of a candidate's
// interview transcript.
type QuestionDetail struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Difficulty models.Difficulty `json:"difficulty"`
	Number     int               `json:"number"`
	Answer     *string           `json:"answer"`
	Score      *float64          `json:"score"`
	TimeTaken  *int              `json:"time_taken"`
}

// InterviewDetail is the full transcript view of a candidate's latest
// interview.
type InterviewDetail struct {
	ID          string           `json:"id"`
	Status      string           `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at"`
	Summary     string           `json:"summary,omitempty"`
	FinalScore  float64          `json:"final_score"`
	Questions   []QuestionDetail `json:"questions"`
}

// CandidateDetails returns a candidate together with the full transcript of
// their latest interview.
func (e *InterviewEngine) CandidateDetails(ctx context.Context, candidateID string) (*models.Candidate, *InterviewDetail, error) {
	candidate, err := e.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	if candidate == nil {
		return nil, nil, fmt.Errorf("%w: candidate %s", ErrNotFound, candidateID)
	}

	interview, err := e.store.LatestInterviewByCandidate(ctx, candidateID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get latest interview: %w", err)
	}
	if interview == nil {
		return nil, nil, fmt.Errorf("%w: no interview for candidate %s", ErrNotFound, candidateID)
	}

	questions, err := e.store.ListQuestions(ctx, interview.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list questions: %w", err)
	}

	detail := &InterviewDetail{
		ID:          interview.ID,
		Status:      interview.Status,
		StartedAt:   interview.StartedAt,
		CompletedAt: interview.CompletedAt,
		Summary:     interview.Summary,
		Questions:   make([]QuestionDetail, 0, len(questions)),
	}

	for i := range questions {
		row := QuestionDetail{
			ID:         questions[i].ID,
			Text:       questions[i].QuestionText,
			Difficulty: questions[i].Difficulty,
			Number:     questions[i].QuestionNumber,
		}
		answer, err := e.store.GetAnswerByQuestion(ctx, questions[i].ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get answer: %w", err)
		}
		if answer != nil {
			row.Answer = &answer.AnswerText
			row.Score = &answer.Score
			row.TimeTaken = &answer.TimeTaken
		}
		detail.Questions = append(detail.Questions, row)
	}

	detail.FinalScore, err = e.GetFinalScore(ctx, interview.ID)
	if err != nil {
		return nil, nil, err
	}

	return candidate, detail, nil
}
