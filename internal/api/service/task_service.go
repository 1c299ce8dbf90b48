package service

import (
	"context"
	"ctchen222/TaskManager/internal/api/models"
	"ctchen222/TaskManager/internal/api/repository"
	"ctchen222/TaskManager/internal/apperror"
	"ctchen222/TaskManager/internal/auth"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
)

// TaskService defines the task operations. Every call acts on behalf of
// identity and only ever touches identity's own tasks.
type TaskService interface {
	Create(ctx context.Context, identity *models.User, req *models.CreateTaskRequest) (*models.Task, error)
	List(ctx context.Context, identity *models.User) ([]models.Task, error)
	Get(ctx context.Context, identity *models.User, id int64) (*models.Task, error)
	Update(ctx context.Context, identity *models.User, id int64, req *models.UpdateTaskRequest) (*models.Task, error)
	Delete(ctx context.Context, identity *models.User, id int64) error
}

type taskService struct {
	taskRepo repository.TaskRepository
	tx       Transactor
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, tx Transactor) TaskService {
	return &taskService{taskRepo: taskRepo, tx: tx}
}

// Create stores a task owned by identity. Status defaults to NEW.
func (s *taskService) Create(ctx context.Context, identity *models.User, req *models.CreateTaskRequest) (*models.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.Create")
	defer span.End()

	if identity == nil {
		return nil, apperror.Unauthenticated(auth.ReasonMissingCredential)
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.StatusNew,
		UserID:      identity.ID,
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if err := s.taskRepo.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("task.id", task.ID))
	slog.DebugContext(ctx, "task created", "task_id", task.ID, "user_id", identity.ID)
	return task, nil
}

// List returns identity's tasks.
func (s *taskService) List(ctx context.Context, identity *models.User) ([]models.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.List")
	defer span.End()

	if identity == nil {
		return nil, apperror.Unauthenticated(auth.ReasonMissingCredential)
	}
	return s.taskRepo.ListTasksByOwner(ctx, identity.ID)
}

func (s *taskService) Get(ctx context.Context, identity *models.User, id int64) (*models.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.Get")
	defer span.End()

	task, err := s.taskRepo.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOwner(task, identity); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies a partial update of title, description and status.
func (s *taskService) Update(ctx context.Context, identity *models.User, id int64, req *models.UpdateTaskRequest) (*models.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.Update")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var updated *models.Task
	err := s.tx.WithinTx(ctx, func(_ repository.UserRepository, tasks repository.TaskRepository) error {
		task, err := tasks.GetTaskByID(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.AuthorizeOwner(task, identity); err != nil {
			return err
		}

		req.ApplyTo(task)
		if err := tasks.UpdateTask(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *taskService) Delete(ctx context.Context, identity *models.User, id int64) error {
	ctx, span := tracer.Start(ctx, "TaskService.Delete")
	defer span.End()

	return s.tx.WithinTx(ctx, func(_ repository.UserRepository, tasks repository.TaskRepository) error {
		task, err := tasks.GetTaskByID(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.AuthorizeOwner(task, identity); err != nil {
			return err
		}
		return tasks.DeleteTask(ctx, id)
	})
}
