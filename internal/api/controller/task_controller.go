package controller

import (
	"ctchen222/TaskManager/internal/api/middleware"
	"ctchen222/TaskManager/internal/api/models"
	"ctchen222/TaskManager/internal/api/response"
	"ctchen222/TaskManager/internal/api/service"

	"github.com/gin-gonic/gin"
)

// TaskController handles task HTTP requests. All routes require an
// authenticated caller.
type TaskController struct {
	taskService service.TaskService
}

// NewTaskController creates a new TaskController.
func NewTaskController(taskService service.TaskService) *TaskController {
	return &TaskController{
		taskService: taskService,
	}
}

func (tc *TaskController) Create(c *gin.Context) {
	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	task, err := tc.taskService.Create(c.Request.Context(), middleware.Identity(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.CreatedResponse(c, task)
}

// List returns only the caller's tasks.
func (tc *TaskController) List(c *gin.Context) {
	tasks, err := tc.taskService.List(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessResponseList(c, tasks)
}

func (tc *TaskController) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	task, err := tc.taskService.Get(c.Request.Context(), middleware.Identity(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessResponse(c, task)
}

func (tc *TaskController) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	task, err := tc.taskService.Update(c.Request.Context(), middleware.Identity(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessResponse(c, task)
}

func (tc *TaskController) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := tc.taskService.Delete(c.Request.Context(), middleware.Identity(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
