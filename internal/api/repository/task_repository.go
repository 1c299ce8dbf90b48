package repository

import (
	"context"
	"ctchen222/TaskManager/internal/api/models"
	"database/sql"
	"errors"
	"fmt"
)

//go:generate mockgen -source=task_repository.go -destination=mocks/mock_task_repository.go -package=mocks

// TaskRepository defines the interface for task data operations. A missing
// task is reported as (nil, nil).
type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, id int64) (*models.Task, error)
	ListTasksByOwner(ctx context.Context, ownerID int64) ([]models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id int64) error
}

type sqliteTaskRepository struct {
	db DBTX
}

// NewTaskRepository creates a new SQLite-based TaskRepository.
func NewTaskRepository(db DBTX) TaskRepository {
	return &sqliteTaskRepository{db: db}
}

const taskColumns = `id, title, description, status, user_id`

// CreateTask inserts task and sets task.ID.
func (r *sqliteTaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, span := tracer.Start(ctx, "TaskRepository.CreateTask")
	defer span.End()

	query := `INSERT INTO tasks (title, description, status, user_id) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, task.Title, nullableString(task.Description), string(task.Status), task.UserID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new task id: %w", err)
	}
	task.ID = id
	return nil
}

func (r *sqliteTaskRepository) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskRepository.GetTaskByID")
	defer span.End()

	var task models.Task
	err := r.db.GetContext(ctx, &task, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *sqliteTaskRepository) ListTasksByOwner(ctx context.Context, ownerID int64) ([]models.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskRepository.ListTasksByOwner")
	defer span.End()

	tasks := []models.Task{}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ? ORDER BY id`
	if err := r.db.SelectContext(ctx, &tasks, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask writes title, description and status. The owner column is
// never rewritten.
func (r *sqliteTaskRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	ctx, span := tracer.Start(ctx, "TaskRepository.UpdateTask")
	defer span.End()

	query := `UPDATE tasks SET title = ?, description = ?, status = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, task.Title, nullableString(task.Description), string(task.Status), task.ID); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (r *sqliteTaskRepository) DeleteTask(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "TaskRepository.DeleteTask")
	defer span.End()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
