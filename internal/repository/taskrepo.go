package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Haisyam/SiMETA/internal/models"
)

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) (*TaskRepo, error) {
	repo := &TaskRepo{db: db}

	if err := repo.createTable(); err != nil {
		return nil, fmt.Errorf("could not initialize tasks table: %w", err)
	}

	return repo, nil
}

func (r *TaskRepo) createTable() error {
	query := `CREATE TABLE IF NOT EXISTS tasks(
		id SERIAL PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		course TEXT NOT NULL,
		due_date TIMESTAMPTZ NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'todo',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`
	_, err := r.db.Exec(query)
	return err
}

// FetchTasks returns every task owned by userID, newest first. The
// view pipeline does all filtering and re-sorting in memory.
func (r *TaskRepo) FetchTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	query := `SELECT id, user_id, title, course, due_date, notes, status, created_at
		FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Course, &t.DueDate, &t.Notes, &t.Status, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) AddTask(ctx context.Context, t models.Task) error {
	query := `INSERT INTO tasks (user_id, title, course, due_date, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, t.UserID, t.Title, t.Course, t.DueDate, t.Notes, t.Status)
	return err
}

// UpdateTask overwrites every mutable field of one task. Last write
// wins; there is no version column.
func (r *TaskRepo) UpdateTask(ctx context.Context, t models.Task) error {
	query := `UPDATE tasks SET title = $1, course = $2, due_date = $3, notes = $4, status = $5
		WHERE id = $6 AND user_id = $7`
	res, err := r.db.ExecContext(ctx, query, t.Title, t.Course, t.DueDate, t.Notes, t.Status, t.ID, t.UserID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *TaskRepo) DeleteTask(ctx context.Context, id int, userID uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
