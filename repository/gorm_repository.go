package repository

import (
	"context"
	"log/slog"

	"github.com/crisp-ai/interview-assistant/models"
	"gorm.io/gorm"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.Candidate{},
		&models.Interview{},
		&models.Question{},
		&models.Answer{},
	)
}

// Candidate operations
func (r *GORMRepository) CreateCandidate(ctx context.Context, candidate *models.Candidate) error {
	if err := r.db.WithContext(ctx).Create(candidate).Error; err != nil {
		slog.Error("Failed to create candidate", "error", err, "email", candidate.Email)
		return err
	}
	slog.Info("Candidate created", "candidate_id", candidate.ID, "email", candidate.Email)
	return nil
}

func (r *GORMRepository) GetCandidateByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&candidate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get candidate by email", "error", err, "email", email)
		return nil, err
	}
	return &candidate, nil
}

func (r *GORMRepository) GetCandidateByID(ctx context.Context, id string) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&candidate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get candidate by ID", "error", err, "candidate_id", id)
		return nil, err
	}
	return &candidate, nil
}

func (r *GORMRepository) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	var candidates []models.Candidate
	if err := r.db.WithContext(ctx).Order("created_at").Find(&candidates).Error; err != nil {
		slog.Error("Failed to list candidates", "error", err)
		return nil, err
	}
	return candidates, nil
}

// Interview operations
func (r *GORMRepository) CreateInterview(ctx context.Context, interview *models.Interview) error {
	if err := r.db.WithContext(ctx).Create(interview).Error; err != nil {
		slog.Error("Failed to create interview", "error", err, "candidate_id", interview.CandidateID)
		return err
	}
	slog.Info("Interview created", "interview_id", interview.ID, "candidate_id", interview.CandidateID)
	return nil
}

func (r *GORMRepository) GetInterview(ctx context.Context, id string) (*models.Interview, error) {
	var interview models.Interview
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&interview).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get interview", "error", err, "interview_id", id)
		return nil, err
	}
	return &interview, nil
}

func (r *GORMRepository) SaveInterview(ctx context.Context, interview *models.Interview) error {
	if err := r.db.WithContext(ctx).Save(interview).Error; err != nil {
		slog.Error("Failed to save interview", "error", err, "interview_id", interview.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) LatestInterviewByCandidate(ctx context.Context, candidateID string) (*models.Interview, error) {
	var interview models.Interview
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("started_at DESC").
		First(&interview).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get latest interview", "error", err, "candidate_id", candidateID)
		return nil, err
	}
	return &interview, nil
}

func (r *GORMRepository) FindUnfinishedInterview(ctx context.Context, candidateID string) (*models.Interview, error) {
	var interview models.Interview
	query := r.db.WithContext(ctx).Where("status = ?", models.StatusInProgress)
	if candidateID != "" {
		query = query.Where("candidate_id = ?", candidateID)
	}
	if err := query.Order("started_at DESC").First(&interview).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to find unfinished interview", "error", err, "candidate_id", candidateID)
		return nil, err
	}
	return &interview, nil
}

// Question operations
func (r *GORMRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		slog.Error("Failed to create question", "error", err, "interview_id", question.InterviewID, "number", question.QuestionNumber)
		return err
	}
	slog.Info("Question created", "question_id", question.ID, "interview_id", question.InterviewID, "number", question.QuestionNumber)
	return nil
}

func (r *GORMRepository) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&question).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get question", "error", err, "question_id", id)
		return nil, err
	}
	return &question, nil
}

func (r *GORMRepository) GetQuestionByNumber(ctx context.Context, interviewID string, number int) (*models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Where("interview_id = ? AND question_number = ?", interviewID, number).
		First(&question).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get question by number", "error", err, "interview_id", interviewID, "number", number)
		return nil, err
	}
	return &question, nil
}

func (r *GORMRepository) ListQuestions(ctx context.Context, interviewID string) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("question_number").
		Find(&questions).Error
	if err != nil {
		slog.Error("Failed to list questions", "error", err, "interview_id", interviewID)
		return nil, err
	}
	return questions, nil
}

// Answer operations
func (r *GORMRepository) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		slog.Error("Failed to create answer", "error", err, "question_id", answer.QuestionID)
		return err
	}
	slog.Info("Answer created", "answer_id", answer.ID, "question_id", answer.QuestionID, "score", answer.Score)
	return nil
}

func (r *GORMRepository) GetAnswerByQuestion(ctx context.Context, questionID string) (*models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).Where("question_id = ?", questionID).First(&answer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get answer by question", "error", err, "question_id", questionID)
		return nil, err
	}
	return &answer, nil
}

func (r *GORMRepository) ListAnswers(ctx context.Context, interviewID string) ([]models.Answer, error) {
	var answers []models.Answer
	err := r.db.WithContext(ctx).
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("questions.interview_id = ?", interviewID).
		Order("questions.question_number").
		Find(&answers).Error
	if err != nil {
		slog.Error("Failed to list answers", "error", err, "interview_id", interviewID)
		return nil, err
	}
	return answers, nil
}

func (r *GORMRepository) CountAnswers(ctx context.Context, interviewID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Answer{}).
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("questions.interview_id = ?", interviewID).
		Count(&count).Error
	if err != nil {
		slog.Error("Failed to count answers", "error", err, "interview_id", interviewID)
		return 0, err
	}
	return count, nil
}

// Transaction runs fn against a Store bound to a database transaction.
func (r *GORMRepository) Transaction(ctx context.Context, fn func(Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMRepository{db: tx})
	})
}
