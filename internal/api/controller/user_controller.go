package controller

import (
	"ctchen222/TaskManager/internal/api/middleware"
	"ctchen222/TaskManager/internal/api/models"
	"ctchen222/TaskManager/internal/api/response"
	"ctchen222/TaskManager/internal/api/service"
	"ctchen222/TaskManager/internal/apperror"
	"strconv"

	"github.com/gin-gonic/gin"
)

// UserController handles user-related HTTP requests.
type UserController struct {
	userService service.UserService
}

// NewUserController creates a new UserController.
func NewUserController(userService service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// Register handles the user registration endpoint.
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := uc.userService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.CreatedResponse(c, user)
}

// Login accepts credentials either as a form body or as JSON.
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}

	pair, err := uc.userService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, pair)
}

// Refresh exchanges a refresh token for a new access token.
func (uc *UserController) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	pair, err := uc.userService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, pair)
}

// Me returns the authenticated user.
func (uc *UserController) Me(c *gin.Context) {
	identity := middleware.Identity(c)
	if identity == nil {
		response.Error(c, apperror.Unauthenticated("missing credential"))
		return
	}
	response.SuccessResponse(c, identity)
}

func (uc *UserController) List(c *gin.Context) {
	users, err := uc.userService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessResponseList(c, users)
}

func (uc *UserController) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := uc.userService.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessResponse(c, user)
}

// Update applies a partial update to the caller's own account.
func (uc *UserController) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := uc.userService.Update(c.Request.Context(), middleware.Identity(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, models.UpdateUserResponse{
		Message: "User updated successfully",
		User:    user,
	})
}

// Delete removes the caller's own account and its tasks.
func (uc *UserController) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := uc.userService.Delete(c.Request.Context(), middleware.Identity(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.InvalidArgument("id: must be a positive integer")
	}
	return id, nil
}
