package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - Candidate from candidate.go
// - Interview from interview.go
// - Question, Difficulty from question.go
// - Answer from answer.go

// Database schema overview:
// 1. candidates - One record per unique email, created on first interview start
// 2. interviews - Records each interview attempt, linking back to a candidate
// 3. questions - Exactly one question per (interview, question_number) slot, 1..6
// 4. answers - At most one scored answer per question
