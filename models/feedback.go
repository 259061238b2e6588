package models

import "time"

// Suggestion is a post on the community feedback board
type Suggestion struct {
	ID        string    `json:"id" firestore:"-"`
	UserName  string    `json:"user_name" firestore:"userName"`
	Content   string    `json:"content" firestore:"content"`
	Score     int64     `json:"score" firestore:"score"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	// UserVote is the reader's own vote (-1, 0, 1), computed per request
	UserVote int64 `json:"user_vote" firestore:"-"`
}

// Vote is stored under suggestions/{id}/votes/{userName}
type Vote struct {
	UserName  string    `firestore:"userName"`
	VoteType  int64     `firestore:"voteType"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type CreateSuggestionRequest struct {
	UserName string `json:"user_name" binding:"required"`
	Content  string `json:"content" binding:"required,max=1000"`
}

type VoteRequest struct {
	UserName     string `json:"user_name" binding:"required"`
	SuggestionID string `json:"suggestion_id" binding:"required"`
	VoteType     int64  `json:"vote_type" binding:"required,oneof=-1 1"`
}

type VoteResult struct {
	Success  bool  `json:"success"`
	NewScore int64 `json:"new_score"`
}
