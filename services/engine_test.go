package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/crisp-ai/interview-assistant/models"
	"github.com/crisp-ai/interview-assistant/repository"
	"github.com/google/uuid"
)

// fakeStore is an in-memory Store for engine tests. Insertion order stands
// in for started_at recency.
type fakeStore struct {
	candidates []*models.Candidate
	interviews []*models.Interview
	questions  []*models.Question
	answers    []*models.Answer
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (f *fakeStore) CreateCandidate(_ context.Context, c *models.Candidate) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	cp := *c
	f.candidates = append(f.candidates, &cp)
	return nil
}

func (f *fakeStore) GetCandidateByEmail(_ context.Context, email string) (*models.Candidate, error) {
	for _, c := range f.candidates {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetCandidateByID(_ context.Context, id string) (*models.Candidate, error) {
	for _, c := range f.candidates {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListCandidates(_ context.Context) ([]models.Candidate, error) {
	out := make([]models.Candidate, 0, len(f.candidates))
	for _, c := range f.candidates {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) CreateInterview(_ context.Context, iv *models.Interview) error {
	if iv.ID == "" {
		iv.ID = uuid.New().String()
	}
	cp := *iv
	f.interviews = append(f.interviews, &cp)
	return nil
}

func (f *fakeStore) GetInterview(_ context.Context, id string) (*models.Interview, error) {
	for _, iv := range f.interviews {
		if iv.ID == id {
			cp := *iv
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SaveInterview(_ context.Context, iv *models.Interview) error {
	for i, existing := range f.interviews {
		if existing.ID == iv.ID {
			cp := *iv
			f.interviews[i] = &cp
			return nil
		}
	}
	cp := *iv
	f.interviews = append(f.interviews, &cp)
	return nil
}

func (f *fakeStore) LatestInterviewByCandidate(_ context.Context, candidateID string) (*models.Interview, error) {
	for i := len(f.interviews) - 1; i >= 0; i-- {
		if f.interviews[i].CandidateID == candidateID {
			cp := *f.interviews[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindUnfinishedInterview(_ context.Context, candidateID string) (*models.Interview, error) {
	for i := len(f.interviews) - 1; i >= 0; i-- {
		iv := f.interviews[i]
		if iv.Status != models.StatusInProgress {
			continue
		}
		if candidateID != "" && iv.CandidateID != candidateID {
			continue
		}
		cp := *iv
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateQuestion(_ context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	for _, existing := range f.questions {
		if existing.InterviewID == q.InterviewID && existing.QuestionNumber == q.QuestionNumber {
			return fmt.Errorf("duplicate question slot %d", q.QuestionNumber)
		}
	}
	cp := *q
	f.questions = append(f.questions, &cp)
	return nil
}

func (f *fakeStore) GetQuestion(_ context.Context, id string) (*models.Question, error) {
	for _, q := range f.questions {
		if q.ID == id {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetQuestionByNumber(_ context.Context, interviewID string, number int) (*models.Question, error) {
	for _, q := range f.questions {
		if q.InterviewID == interviewID && q.QuestionNumber == number {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListQuestions(_ context.Context, interviewID string) ([]models.Question, error) {
	var out []models.Question
	for _, q := range f.questions {
		if q.InterviewID == interviewID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionNumber < out[j].QuestionNumber })
	return out, nil
}

func (f *fakeStore) CreateAnswer(_ context.Context, a *models.Answer) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	for _, existing := range f.answers {
		if existing.QuestionID == a.QuestionID {
			return fmt.Errorf("duplicate answer for question %s", a.QuestionID)
		}
	}
	cp := *a
	f.answers = append(f.answers, &cp)
	return nil
}

func (f *fakeStore) GetAnswerByQuestion(_ context.Context, questionID string) (*models.Answer, error) {
	for _, a := range f.answers {
		if a.QuestionID == questionID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListAnswers(ctx context.Context, interviewID string) ([]models.Answer, error) {
	questions, _ := f.ListQuestions(ctx, interviewID)
	var out []models.Answer
	for i := range questions {
		for _, a := range f.answers {
			if a.QuestionID == questions[i].ID {
				out = append(out, *a)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) CountAnswers(ctx context.Context, interviewID string) (int64, error) {
	answers, _ := f.ListAnswers(ctx, interviewID)
	return int64(len(answers)), nil
}

func (f *fakeStore) Transaction(_ context.Context, fn func(repository.Store) error) error {
	return fn(f)
}

// fakeAI is a deterministic collaborator for engine tests.
type fakeAI struct {
	score float64
}

func (a *fakeAI) GenerateQuestion(_ context.Context, number int, difficulty models.Difficulty) string {
	return fmt.Sprintf("%s question %d", difficulty, number)
}

func (a *fakeAI) ScoreAnswer(_ context.Context, _, _ string, _ models.Difficulty) float64 {
	return a.score
}

func (a *fakeAI) Summarize(_ context.Context, candidateName string, finalScore float64, _ []TranscriptEntry) string {
	return fmt.Sprintf("%s scored %.2f/10", candidateName, finalScore)
}

func newTestEngine(t *testing.T) (*InterviewEngine, *fakeStore, *fakeAI) {
	t.Helper()
	store := newFakeStore()
	ai := &fakeAI{score: 7}
	return NewInterviewEngine(store, ai), store, ai
}

func startTestInterview(t *testing.T, engine *InterviewEngine) *StartResult {
	t.Helper()
	result, err := engine.StartInterview(context.Background(), "A", "a@x.com", "555")
	if err != nil {
		t.Fatalf("StartInterview: %v", err)
	}
	return result
}

func TestStartInterview(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	result := startTestInterview(t, engine)
	if result.InterviewID == "" {
		t.Fatal("expected interview id")
	}
	if result.Question.Number != 1 {
		t.Errorf("expected question #1, got %d", result.Question.Number)
	}
	if result.Question.Difficulty != models.DifficultyEasy {
		t.Errorf("expected easy difficulty, got %q", result.Question.Difficulty)
	}
	if result.Question.TimeLimit != 20 {
		t.Errorf("expected time limit 20, got %d", result.Question.TimeLimit)
	}
}

func TestStartInterviewValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	tests := []struct {
		name, candidateName, email string
	}{
		{"missing name", "", "a@x.com"},
		{"missing email", "A", ""},
		{"whitespace only", "   ", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.StartInterview(context.Background(), tt.candidateName, tt.email, "")
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestStartInterviewReusesCandidate(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	first := startTestInterview(t, engine)
	second := startTestInterview(t, engine)

	if first.Candidate.ID != second.Candidate.ID {
		t.Errorf("expected same candidate across interviews, got %s and %s", first.Candidate.ID, second.Candidate.ID)
	}
	if first.InterviewID == second.InterviewID {
		t.Error("expected two distinct interviews")
	}
	if len(store.candidates) != 1 {
		t.Errorf("expected 1 candidate record, got %d", len(store.candidates))
	}
}

func TestSubmitAnswerFullFlow(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	result := startTestInterview(t, engine)
	question := result.Question

	wantNext := []struct {
		number     int
		difficulty models.Difficulty
		timeLimit  int
	}{
		{2, models.DifficultyEasy, 20},
		{3, models.DifficultyMedium, 60},
		{4, models.DifficultyMedium, 60},
		{5, models.DifficultyHard, 120},
		{6, models.DifficultyHard, 120},
	}

	for i, want := range wantNext {
		submit, err := engine.SubmitAnswer(ctx, question.ID, "an answer", 10)
		if err != nil {
			t.Fatalf("SubmitAnswer #%d: %v", i+1, err)
		}
		if submit.Complete {
			t.Fatalf("interview completed early after answer %d", i+1)
		}
		if submit.NextQuestion.Number != want.number {
			t.Errorf("answer %d: next number = %d, want %d", i+1, submit.NextQuestion.Number, want.number)
		}
		if submit.NextQuestion.Difficulty != want.difficulty {
			t.Errorf("answer %d: difficulty = %q, want %q", i+1, submit.NextQuestion.Difficulty, want.difficulty)
		}
		if submit.NextQuestion.TimeLimit != want.timeLimit {
			t.Errorf("answer %d: time limit = %d, want %d", i+1, submit.NextQuestion.TimeLimit, want.timeLimit)
		}

		iv, _ := store.GetInterview(ctx, result.InterviewID)
		if iv.CompletedAt != nil {
			t.Errorf("completed_at set after only %d answers", i+1)
		}
		question = submit.NextQuestion
	}

	final, err := engine.SubmitAnswer(ctx, question.ID, "final answer", 30)
	if err != nil {
		t.Fatalf("SubmitAnswer #6: %v", err)
	}
	if !final.Complete {
		t.Fatal("expected interview_complete after 6th answer")
	}
	if final.Summary == "" {
		t.Error("expected non-empty summary")
	}
	if final.FinalScore < 1 || final.FinalScore > 10 {
		t.Errorf("final score %v outside [1,10]", final.FinalScore)
	}

	iv, _ := store.GetInterview(ctx, result.InterviewID)
	if iv.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", iv.Status)
	}
	if iv.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}
	if iv.Summary == "" {
		t.Error("summary not persisted")
	}
}

func TestSubmitAnswerUnknownQuestion(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.SubmitAnswer(context.Background(), "missing-id", "answer", 5)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitAnswerTwiceRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	result := startTestInterview(t, engine)
	if _, err := engine.SubmitAnswer(ctx, result.Question.ID, "first", 5); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	_, err := engine.SubmitAnswer(ctx, result.Question.ID, "second", 5)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation on duplicate submission, got %v", err)
	}
}

func TestGetFinalScore(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	result := startTestInterview(t, engine)

	// No answers yet.
	score, err := engine.GetFinalScore(ctx, result.InterviewID)
	if err != nil {
		t.Fatalf("GetFinalScore: %v", err)
	}
	if score != 0 {
		t.Errorf("expected 0 with no answers, got %v", score)
	}

	// Seed answers directly: 7, 8, 8 -> mean 7.666... -> 7.67.
	if err := store.CreateAnswer(ctx, &models.Answer{QuestionID: result.Question.ID, AnswerText: "a", Score: 7}); err != nil {
		t.Fatalf("CreateAnswer: %v", err)
	}
	for number, s := range map[int]float64{2: 8, 3: 8} {
		q := &models.Question{
			InterviewID:    result.InterviewID,
			QuestionNumber: number,
			Difficulty:     models.DifficultyForNumber(number),
			QuestionText:   "q",
		}
		if err := store.CreateQuestion(ctx, q); err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}
		if err := store.CreateAnswer(ctx, &models.Answer{QuestionID: q.ID, AnswerText: "a", Score: s}); err != nil {
			t.Fatalf("CreateAnswer: %v", err)
		}
	}

	score, err = engine.GetFinalScore(ctx, result.InterviewID)
	if err != nil {
		t.Fatalf("GetFinalScore: %v", err)
	}
	if score != 7.67 {
		t.Errorf("expected 7.67, got %v", score)
	}

	// Idempotent: a second call returns the same value.
	again, err := engine.GetFinalScore(ctx, result.InterviewID)
	if err != nil {
		t.Fatalf("GetFinalScore: %v", err)
	}
	if again != score {
		t.Errorf("expected idempotent result, got %v then %v", score, again)
	}
}

func TestResumeInterview(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	result := startTestInterview(t, engine)

	// Zero answers: resume returns question #1.
	question, err := engine.ResumeInterview(ctx, result.InterviewID)
	if err != nil {
		t.Fatalf("ResumeInterview: %v", err)
	}
	if question.Number != 1 {
		t.Errorf("expected question #1, got %d", question.Number)
	}

	// Answer questions 1-3; resume should return #4 with its medium limit.
	current := result.Question
	for i := 0; i < 3; i++ {
		submit, err := engine.SubmitAnswer(ctx, current.ID, "answer", 10)
		if err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
		current = submit.NextQuestion
	}

	question, err = engine.ResumeInterview(ctx, result.InterviewID)
	if err != nil {
		t.Fatalf("ResumeInterview: %v", err)
	}
	if question.Number != 4 {
		t.Errorf("expected question #4, got %d", question.Number)
	}
	if question.Difficulty != models.DifficultyMedium {
		t.Errorf("expected medium difficulty, got %q", question.Difficulty)
	}
	if question.TimeLimit != 60 {
		t.Errorf("expected time limit 60, got %d", question.TimeLimit)
	}
}

func TestResumeInterviewNotFound(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.ResumeInterview(ctx, "missing-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown interview, got %v", err)
	}

	// Interview exists but has no questions yet.
	iv := &models.Interview{CandidateID: "c1", Status: models.StatusInProgress}
	if err := store.CreateInterview(ctx, iv); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}
	if _, err := engine.ResumeInterview(ctx, iv.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for interview without questions, got %v", err)
	}
}

func TestPauseUnpause(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	result := startTestInterview(t, engine)

	ok, err := engine.PauseInterview(ctx, result.InterviewID)
	if err != nil || !ok {
		t.Fatalf("PauseInterview = (%v, %v), want (true, nil)", ok, err)
	}
	iv, _ := store.GetInterview(ctx, result.InterviewID)
	if iv.Status != models.StatusPaused {
		t.Errorf("status = %q, want paused", iv.Status)
	}

	ok, err = engine.UnpauseInterview(ctx, result.InterviewID)
	if err != nil || !ok {
		t.Fatalf("UnpauseInterview = (%v, %v), want (true, nil)", ok, err)
	}
	iv, _ = store.GetInterview(ctx, result.InterviewID)
	if iv.Status != models.StatusInProgress {
		t.Errorf("status = %q, want in_progress", iv.Status)
	}

	// Unknown interview is a no-op false, not an error.
	ok, err = engine.PauseInterview(ctx, "missing-id")
	if err != nil || ok {
		t.Errorf("PauseInterview(unknown) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestGetProgress(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	result := startTestInterview(t, engine)

	progress, err := engine.GetProgress(ctx, result.InterviewID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if progress.TotalQuestions != 1 || progress.AnsweredQuestions != 0 || progress.CurrentQuestion != 1 {
		t.Errorf("unexpected initial progress: %+v", progress)
	}

	current := result.Question
	for i := 0; i < 3; i++ {
		submit, err := engine.SubmitAnswer(ctx, current.ID, "answer", 10)
		if err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
		current = submit.NextQuestion
	}

	progress, err = engine.GetProgress(ctx, result.InterviewID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if progress.AnsweredQuestions != 3 {
		t.Errorf("answered = %d, want 3", progress.AnsweredQuestions)
	}
	if progress.CurrentQuestion != 4 {
		t.Errorf("current = %d, want 4", progress.CurrentQuestion)
	}
	if progress.ProgressPercentage != 50 {
		t.Errorf("percentage = %v, want 50", progress.ProgressPercentage)
	}

	if _, err := engine.GetProgress(ctx, "missing-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindUnfinishedInterview(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	// Nothing to resume in an empty system.
	iv, _, err := engine.FindUnfinishedInterview(ctx, "")
	if err != nil {
		t.Fatalf("FindUnfinishedInterview: %v", err)
	}
	if iv != nil {
		t.Fatal("expected no unfinished interview")
	}

	result := startTestInterview(t, engine)

	iv, candidate, err := engine.FindUnfinishedInterview(ctx, "")
	if err != nil {
		t.Fatalf("FindUnfinishedInterview: %v", err)
	}
	if iv == nil || iv.ID != result.InterviewID {
		t.Fatalf("expected interview %s, got %+v", result.InterviewID, iv)
	}
	if candidate == nil || candidate.Email != "a@x.com" {
		t.Errorf("unexpected candidate: %+v", candidate)
	}

	// Scoped lookup for a different candidate finds nothing.
	iv, _, err = engine.FindUnfinishedInterview(ctx, "someone-else")
	if err != nil {
		t.Fatalf("FindUnfinishedInterview: %v", err)
	}
	if iv != nil {
		t.Error("expected no unfinished interview for other candidate")
	}

	// Complete the interview; nothing left to resume.
	current := result.Question
	for i := 0; i < models.TotalQuestions; i++ {
		submit, err := engine.SubmitAnswer(ctx, current.ID, "answer", 10)
		if err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
		if submit.Complete {
			break
		}
		current = submit.NextQuestion
	}

	iv, _, err = engine.FindUnfinishedInterview(ctx, "")
	if err != nil {
		t.Fatalf("FindUnfinishedInterview: %v", err)
	}
	if iv != nil {
		t.Error("expected no unfinished interview after completion")
	}
}

func TestListCandidateSummariesSorted(t *testing.T) {
	engine, store, ai := newTestEngine(t)
	ctx := context.Background()

	complete := func(name, email string, score float64) {
		t.Helper()
		ai.score = score
		result, err := engine.StartInterview(ctx, name, email, "")
		if err != nil {
			t.Fatalf("StartInterview: %v", err)
		}
		current := result.Question
		for {
			submit, err := engine.SubmitAnswer(ctx, current.ID, "answer", 10)
			if err != nil {
				t.Fatalf("SubmitAnswer: %v", err)
			}
			if submit.Complete {
				return
			}
			current = submit.NextQuestion
		}
	}

	complete("Low", "low@x.com", 4)
	complete("High", "high@x.com", 9)
	complete("Mid", "mid@x.com", 6)

	summaries, err := engine.ListCandidateSummaries(ctx)
	if err != nil {
		t.Fatalf("ListCandidateSummaries: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}
	wantOrder := []string{"High", "Mid", "Low"}
	for i, want := range wantOrder {
		if summaries[i].Name != want {
			t.Errorf("position %d: got %q, want %q", i, summaries[i].Name, want)
		}
	}

	// A candidate without an interview never shows up.
	if err := store.CreateCandidate(ctx, &models.Candidate{Name: "Ghost", Email: "ghost@x.com"}); err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}
	summaries, err = engine.ListCandidateSummaries(ctx)
	if err != nil {
		t.Fatalf("ListCandidateSummaries: %v", err)
	}
	if len(summaries) != 3 {
		t.Errorf("expected 3 summaries after adding interview-less candidate, got %d", len(summaries))
	}
}

func TestCandidateDetails(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	result := startTestInterview(t, engine)
	if _, err := engine.SubmitAnswer(ctx, result.Question.ID, "my answer", 12); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	candidate, detail, err := engine.CandidateDetails(ctx, result.Candidate.ID)
	if err != nil {
		t.Fatalf("CandidateDetails: %v", err)
	}
	if candidate.Email != "a@x.com" {
		t.Errorf("unexpected candidate email %q", candidate.Email)
	}
	if len(detail.Questions) != 2 {
		t.Fatalf("expected 2 questions in transcript, got %d", len(detail.Questions))
	}
	first := detail.Questions[0]
	if first.Answer == nil || *first.Answer != "my answer" {
		t.Errorf("unexpected first answer: %+v", first.Answer)
	}
	if first.TimeTaken == nil || *first.TimeTaken != 12 {
		t.Errorf("unexpected time taken: %+v", first.TimeTaken)
	}
	second := detail.Questions[1]
	if second.Answer != nil {
		t.Error("expected unanswered second question")
	}

	if _, _, err := engine.CandidateDetails(ctx, "missing-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
