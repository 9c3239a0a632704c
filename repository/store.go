package repository

import (
	"context"

	"github.com/crisp-ai/interview-assistant/models"
)

// Store is the persistence surface the interview engine runs against.
// Lookups return (nil, nil) when the record does not exist. Ownership is
// explicit: interviews own questions by id reference and questions own at
// most one answer by id reference, so callers query instead of traversing
// lazy-loaded relationships.
type Store interface {
	// Candidate operations
	CreateCandidate(ctx context.Context, candidate *models.Candidate) error
	GetCandidateByEmail(ctx context.Context, email string) (*models.Candidate, error)
	GetCandidateByID(ctx context.Context, id string) (*models.Candidate, error)
	ListCandidates(ctx context.Context) ([]models.Candidate, error)

	// Interview operations
	CreateInterview(ctx context.Context, interview *models.Interview) error
	GetInterview(ctx context.Context, id string) (*models.Interview, error)
	SaveInterview(ctx context.Context, interview *models.Interview) error
	LatestInterviewByCandidate(ctx context.Context, candidateID string) (*models.Interview, error)
	// FindUnfinishedInterview returns the most recently started in_progress
	// interview, scoped to one candidate when candidateID is non-empty.
	FindUnfinishedInterview(ctx context.Context, candidateID string) (*models.Interview, error)

	// Question operations
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	GetQuestionByNumber(ctx context.Context, interviewID string, number int) (*models.Question, error)
	ListQuestions(ctx context.Context, interviewID string) ([]models.Question, error)

	// Answer operations
	CreateAnswer(ctx context.Context, answer *models.Answer) error
	GetAnswerByQuestion(ctx context.Context, questionID string) (*models.Answer, error)
	ListAnswers(ctx context.Context, interviewID string) ([]models.Answer, error)
	CountAnswers(ctx context.Context, interviewID string) (int64, error)

	// Transaction runs fn against a transaction-scoped Store. The
	// count-answers/decide-completion/create-next-question sequence of a
	// submission must run inside one transaction so two concurrent
	// submissions cannot race to duplicate a slot or double-finalize.
	Transaction(ctx context.Context, fn func(Store) error) error
}
