package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const maxResumeSize = 10 << 20 // 10MB upload cap

// InterviewEndpoints exposes the interview flow over HTTP.
type InterviewEndpoints struct {
	engine        *InterviewEngine
	resumeService *ResumeService
	tokens        *SessionTokenService
}

func NewInterviewEndpoints(engine *InterviewEngine, resumeService *ResumeService, tokens *SessionTokenService) *InterviewEndpoints {
	return &InterviewEndpoints{
		engine:        engine,
		resumeService: resumeService,
		tokens:        tokens,
	}
}

func (e *InterviewEndpoints) RegisterRoutes(r chi.Router) {
	r.Post("/upload-resume", e.UploadResumeHandler)
	r.Post("/start-interview", e.StartInterviewHandler)
	r.Post("/submit-answer", e.SubmitAnswerHandler)
	r.Get("/candidates", e.GetCandidatesHandler)
	r.Get("/candidate/{id}", e.GetCandidateDetailsHandler)
	r.Get("/check-unfinished-interview", e.CheckUnfinishedInterviewHandler)
	r.Post("/resume-interview", e.ResumeInterviewHandler)
	r.Post("/pause-interview", e.PauseInterviewHandler)
	r.Post("/unpause-interview", e.UnpauseInterviewHandler)
	r.Get("/interview/{id}/progress", e.GetProgressHandler)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeEngineError maps the error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (e *InterviewEndpoints) UploadResumeHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxResumeSize); err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxResumeSize))
	if err != nil {
		slog.Error("Failed to read uploaded resume", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}

	info, err := e.resumeService.ExtractContactInfo(data, filepath.Ext(header.Filename))
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedFormat):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    info,
	})

	slog.Info("Resume uploaded", "filename", header.Filename, "size", len(data))
}

type StartInterviewRequest struct {
	Candidate struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"candidate"`
}

func (e *InterviewEndpoints) StartInterviewHandler(w http.ResponseWriter, r *http.Request) {
	var req StartInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := e.engine.StartInterview(r.Context(), req.Candidate.Name, req.Candidate.Email, req.Candidate.Phone)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	response := map[string]any{
		"success":      true,
		"interview_id": result.InterviewID,
		"question":     result.Question,
	}
	if e.tokens != nil {
		token, err := e.tokens.Mint(result.Candidate.ID, result.InterviewID)
		if err != nil {
			slog.Error("Failed to mint session token", "error", err, "interview_id", result.InterviewID)
		} else {
			response["session_token"] = token
		}
	}

	writeJSON(w, http.StatusOK, response)
}

type SubmitAnswerRequest struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	TimeTaken  int    `json:"time_taken"`
}

func (e *InterviewEndpoints) SubmitAnswerHandler(w http.ResponseWriter, r *http.Request) {
	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "question_id is required")
		return
	}

	result, err := e.engine.SubmitAnswer(r.Context(), req.QuestionID, req.Answer, req.TimeTaken)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if result.Complete {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":            true,
			"interview_complete": true,
			"summary":            result.Summary,
			"final_score":        result.FinalScore,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"interview_complete": false,
		"next_question":      result.NextQuestion,
	})
}

func (e *InterviewEndpoints) GetCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := e.engine.ListCandidateSummaries(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"candidates": summaries,
	})
}

func (e *InterviewEndpoints) GetCandidateDetailsHandler(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")
	if candidateID == "" {
		writeError(w, http.StatusBadRequest, "Candidate ID is required")
		return
	}

	candidate, interview, err := e.engine.CandidateDetails(r.Context(), candidateID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"candidate": map[string]any{
			"id":    candidate.ID,
			"name":  candidate.Name,
			"email": candidate.Email,
			"phone": candidate.Phone,
		},
		"interview": interview,
	})
}

func (e *InterviewEndpoints) CheckUnfinishedInterviewHandler(w http.ResponseWriter, r *http.Request) {
	// A valid session token scopes the lookup to the caller's candidate;
	// without one the lookup stays system-wide for older clients.
	candidateID := ""
	if e.tokens != nil {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			claims, err := e.tokens.Parse(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				slog.Warn("Ignoring invalid session token", "error", err)
			} else {
				candidateID = claims.CandidateID
			}
		}
	}

	interview, candidate, err := e.engine.FindUnfinishedInterview(r.Context(), candidateID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if interview == nil || candidate == nil {
		writeJSON(w, http.StatusOK, map[string]any{"has_unfinished": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"has_unfinished": true,
		"candidate": map[string]any{
			"id":    candidate.ID,
			"name":  candidate.Name,
			"email": candidate.Email,
		},
		"interview_id": interview.ID,
		"started_at":   interview.StartedAt.Format(time.RFC3339),
	})
}

type InterviewIDRequest struct {
	InterviewID string `json:"interview_id"`
}

func (e *InterviewEndpoints) ResumeInterviewHandler(w http.ResponseWriter, r *http.Request) {
	var req InterviewIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	question, err := e.engine.ResumeInterview(r.Context(), req.InterviewID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"question": question,
	})
}

func (e *InterviewEndpoints) PauseInterviewHandler(w http.ResponseWriter, r *http.Request) {
	e.toggleStatus(w, r, e.engine.PauseInterview)
}

func (e *InterviewEndpoints) UnpauseInterviewHandler(w http.ResponseWriter, r *http.Request) {
	e.toggleStatus(w, r, e.engine.UnpauseInterview)
}

func (e *InterviewEndpoints) toggleStatus(w http.ResponseWriter, r *http.Request, toggle func(ctx context.Context, interviewID string) (bool, error)) {
	var req InterviewIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ok, err := toggle(r.Context(), req.InterviewID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": ok})
}

func (e *InterviewEndpoints) GetProgressHandler(w http.ResponseWriter, r *http.Request) {
	interviewID := chi.URLParam(r, "id")
	if interviewID == "" {
		writeError(w, http.StatusBadRequest, "Interview ID is required")
		return
	}

	progress, err := e.engine.GetProgress(r.Context(), interviewID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"progress": progress,
	})
}
