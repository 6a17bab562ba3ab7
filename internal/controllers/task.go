package controllers

import (
	"context"
	"net/http"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskManager interface {
	CreateTask(ctx context.Context, actor *models.User, req models.GlobalTaskRequest) (*models.GlobalTask, error)
	GetTask(ctx context.Context, id primitive.ObjectID) (*models.GlobalTask, error)
	UpdateTask(ctx context.Context, actor *models.User, id primitive.ObjectID, req models.GlobalTaskRequest) (*models.GlobalTask, error)
	DeleteTask(ctx context.Context, actor *models.User, id primitive.ObjectID) error
	ListTasks(ctx context.Context, q models.ListQuery) (models.Page[models.GlobalTask], error)
}

type TaskController struct {
	tasks TaskManager
}

func NewTaskController(tasks TaskManager) *TaskController {
	return &TaskController{tasks: tasks}
}

func (tc *TaskController) CreateTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req models.GlobalTaskRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	task, err := tc.tasks.CreateTask(c.Request.Context(), user, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, "Task added", task)
}

func (tc *TaskController) GetTask(c *gin.Context) {
	id, ok := idParam(c, "id", "task")
	if !ok {
		return
	}
	task, err := tc.tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "", task)
}

func (tc *TaskController) UpdateTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "task")
	if !ok {
		return
	}
	var req models.GlobalTaskRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	task, err := tc.tasks.UpdateTask(c.Request.Context(), user, id, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Task updated", task)
}

func (tc *TaskController) DeleteTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "task")
	if !ok {
		return
	}
	if err := tc.tasks.DeleteTask(c.Request.Context(), user, id); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Task deleted", nil)
}

func (tc *TaskController) ListTasks(c *gin.Context) {
	q := utils.ParseListQuery(c)
	page, err := tc.tasks.ListTasks(c.Request.Context(), q)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithPage(c, "", page, q.Fields)
}
