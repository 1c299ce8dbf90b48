package models

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusNew        TaskStatus = "NEW"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task represents a task in the database. UserID is fixed at creation.
type Task struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description"`
	Status      TaskStatus `db:"status" json:"status"`
	UserID      int64      `db:"user_id" json:"user_id"`
}

// OwnerID returns the id of the user the task belongs to.
func (t Task) OwnerID() int64 {
	return t.UserID
}

// CreateTaskRequest defines the structure for a task creation request.
type CreateTaskRequest struct {
	Title       string      `json:"title" binding:"required,min=1,max=100"`
	Description *string     `json:"description" binding:"omitempty,max=300"`
	Status      *TaskStatus `json:"status" binding:"omitempty,oneof=NEW IN_PROGRESS COMPLETED"`
}

// UpdateTaskRequest is a partial update; nil fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string     `json:"title" binding:"omitempty,min=1,max=100"`
	Description *string     `json:"description" binding:"omitempty,max=300"`
	Status      *TaskStatus `json:"status" binding:"omitempty,oneof=NEW IN_PROGRESS COMPLETED"`
}

// ApplyTo copies every set field of r onto t. The owner is never touched.
func (r UpdateTaskRequest) ApplyTo(t *Task) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = r.Description
	}
	if r.Status != nil {
		t.Status = *r.Status
	}
}
