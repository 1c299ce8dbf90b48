package service

import (
	"context"
	"ctchen222/TaskManager/internal/api/models"
	"ctchen222/TaskManager/internal/api/repository/mocks"
	"ctchen222/TaskManager/internal/apperror"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTaskFixture(t *testing.T) (*mocks.MockTaskRepository, TaskService) {
	ctrl := gomock.NewController(t)
	tasks := mocks.NewMockTaskRepository(ctrl)
	return tasks, NewTaskService(tasks, fakeTx{tasks: tasks})
}

var (
	alice = &models.User{ID: 1, Username: "alice"}
	bob   = &models.User{ID: 2, Username: "bob"}
)

func TestTaskService_CreateDefaultsAndOwner(t *testing.T) {
	tasks, svc := newTaskFixture(t)
	tasks.EXPECT().CreateTask(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, task *models.Task) error {
		task.ID = 10
		return nil
	})

	task, err := svc.Create(context.Background(), alice, &models.CreateTaskRequest{Title: "write tests"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), task.ID)
	assert.Equal(t, models.StatusNew, task.Status)
	assert.Equal(t, alice.ID, task.UserID)
	assert.Nil(t, task.Description)
}

func TestTaskService_CreateWithStatus(t *testing.T) {
	tasks, svc := newTaskFixture(t)
	tasks.EXPECT().CreateTask(gomock.Any(), gomock.Any()).Return(nil)

	status := models.StatusInProgress
	desc := "details"
	task, err := svc.Create(context.Background(), alice, &models.CreateTaskRequest{Title: "t", Description: &desc, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, task.Status)
	assert.Equal(t, "details", *task.Description)
}

func TestTaskService_CreateInvalid(t *testing.T) {
	_, svc := newTaskFixture(t)
	ctx := context.Background()

	bogus := models.TaskStatus("DONE")
	long := strings.Repeat("x", 301)
	cases := []models.CreateTaskRequest{
		{Title: ""},
		{Title: strings.Repeat("x", 101)},
		{Title: "t", Description: &long},
		{Title: "t", Status: &bogus},
	}
	for _, req := range cases {
		_, err := svc.Create(ctx, alice, &req)
		assert.True(t, apperror.Is(err, apperror.KindInvalidArgument), "%+v", req)
	}

	_, err := svc.Create(ctx, nil, &models.CreateTaskRequest{Title: "t"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
}

func TestTaskService_List(t *testing.T) {
	tasks, svc := newTaskFixture(t)
	tasks.EXPECT().ListTasksByOwner(gomock.Any(), alice.ID).Return([]models.Task{{ID: 1, UserID: alice.ID}}, nil)

	list, err := svc.List(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTaskService_Get(t *testing.T) {
	tasks, svc := newTaskFixture(t)
	ctx := context.Background()
	owned := &models.Task{ID: 5, Title: "t", Status: models.StatusNew, UserID: alice.ID}
	tasks.EXPECT().GetTaskByID(gomock.Any(), int64(5)).Return(owned, nil).Times(2)
	tasks.EXPECT().GetTaskByID(gomock.Any(), int64(6)).Return(nil, nil).Times(2)

	task, err := svc.Get(ctx, alice, 5)
	require.NoError(t, err)
	assert.Equal(t, owned, task)

	_, err = svc.Get(ctx, bob, 5)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = svc.Get(ctx, alice, 6)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = svc.Get(ctx, bob, 6)
	assert.True(t, apperror.Is(err, apperror.KindNotFound), "missing beats forbidden")
}

func TestTaskService_UpdatePartial(t *testing.T) {
	tasks, svc := newTaskFixture(t)
	desc := "keep me"
	tasks.EXPECT().GetTaskByID(gomock.Any(), int64(5)).
		Return(&models.Task{ID: 5, Title: "t", Description: &desc, Status: models.StatusNew, UserID: alice.ID}, nil)
	tasks.EXPECT().UpdateTask(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, task *models.Task) error {
		assert.Equal(t, "t", task.Title)
		assert.Equal(t, "keep me", *task.Description)
		assert.Equal(t, models.StatusCompleted, task.Status)
		assert.Equal(t, alice.ID, task.UserID)
		return nil
	})

	status := models.StatusCompleted
	task, err := svc.Update(context.Background(), alice, 5, &models.UpdateTaskRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, task.Status)
}

func TestTaskService_UpdateGuard(t *testing.T) {
	tasks, svc := newTaskFixture(t)
	tasks.EXPECT().GetTaskByID(gomock.Any(), int64(5)).Return(&models.Task{ID: 5, UserID: alice.ID}, nil)

	title := "hijacked"
	_, err := svc.Update(context.Background(), bob, 5, &models.UpdateTaskRequest{Title: &title})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	empty := ""
	_, err = svc.Update(context.Background(), alice, 5, &models.UpdateTaskRequest{Title: &empty})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
}

func TestTaskService_Delete(t *testing.T) {
	tasks, svc := newTaskFixture(t)
	ctx := context.Background()
	tasks.EXPECT().GetTaskByID(gomock.Any(), int64(5)).Return(&models.Task{ID: 5, UserID: alice.ID}, nil).Times(2)
	tasks.EXPECT().DeleteTask(gomock.Any(), int64(5)).Return(nil)
	tasks.EXPECT().GetTaskByID(gomock.Any(), int64(6)).Return(nil, nil)

	err := svc.Delete(ctx, bob, 5)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	assert.NoError(t, svc.Delete(ctx, alice, 5))

	err = svc.Delete(ctx, alice, 6)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
