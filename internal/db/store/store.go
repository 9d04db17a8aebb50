package store

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jatinkaushik/devprep/internal/discovery"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// User is an account row.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash *string
	DisplayName  string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// CreateUserParams inserts a new account. PasswordHash is nil for OAuth
// accounts.
type CreateUserParams struct {
	Email        string
	PasswordHash *string
	DisplayName  string
}

// InsertUserQuestionParams creates a user-submitted question. New rows are
// never approved; approval is a separate moderation concern.
type InsertUserQuestionParams struct {
	Title       string
	Difficulty  discovery.Difficulty
	Topics      []string
	Description string
	Solution    *string
	Link        *string
	OwnerID     uuid.UUID
	Public      bool
}

// UpdateUserQuestionParams replaces the editable fields of a user question.
type UpdateUserQuestionParams struct {
	Title       string
	Difficulty  discovery.Difficulty
	Topics      []string
	Description string
	Solution    *string
	Link        *string
	Public      bool
}

// InsertUserAssociationParams attaches a company/time-period/frequency fact
// to a user question.
type InsertUserAssociationParams struct {
	QuestionID int64
	CompanyID  int64
	TimePeriod string
	Frequency  float64
	CreatedBy  uuid.UUID
}

// Favorite is a bookmark on either a catalog or a user question.
type Favorite struct {
	ID                int64
	UserID            uuid.UUID
	CatalogQuestionID *int64
	UserQuestionID    *int64
	CreatedAt         time.Time
}
