package models

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses as stored in the tasks table.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// ValidStatus reports whether s is one of the three task statuses.
func ValidStatus(s string) bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

type Task struct {
	ID        int       `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Course    string    `json:"course"`
	DueDate   time.Time `json:"due_date"`
	Notes     string    `json:"notes"`
	Status    string    `json:"status"` //"todo", "in_progress", "done"
	CreatedAt time.Time `json:"created_at"`
}
