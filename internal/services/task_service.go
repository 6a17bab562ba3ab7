package services

import (
	"context"
	"strings"

	"iris-server/internal/models"
	"iris-server/pkg/apperrors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GlobalTaskStore interface {
	CreateTask(ctx context.Context, task *models.GlobalTask) (*models.GlobalTask, error)
	FindTaskByID(ctx context.Context, id primitive.ObjectID) (*models.GlobalTask, error)
	UpdateTask(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.GlobalTask, error)
	DeleteTask(ctx context.Context, id primitive.ObjectID) error
	ListTasks(ctx context.Context, q models.ListQuery) ([]models.GlobalTask, int64, error)
}

type GlobalTaskService struct {
	tasks   GlobalTaskStore
	users   UserFinder
	tracker ActivityTracker
}

func NewGlobalTaskService(tasks GlobalTaskStore, users UserFinder, tracker ActivityTracker) *GlobalTaskService {
	return &GlobalTaskService{tasks: tasks, users: users, tracker: tracker}
}

// checkTask resolves the assignee and the status, defaulting to "To do".
func (s *GlobalTaskService) checkTask(ctx context.Context, req models.GlobalTaskRequest) (primitive.ObjectID, models.TaskStatus, error) {
	status := models.TaskStatus(strings.TrimSpace(req.Status))
	if status == "" {
		status = models.TaskStatusToDo
	}
	if !models.KnownTaskStatuses[status] {
		return primitive.NilObjectID, "", apperrors.Invalid("task_status", "unknown status "+string(status))
	}

	assignee, err := primitive.ObjectIDFromHex(req.AssigneeID)
	if err != nil {
		return primitive.NilObjectID, "", apperrors.NotFound("assignee")
	}
	if _, err := s.users.FindUserByID(ctx, assignee); err != nil {
		return primitive.NilObjectID, "", notFound(err, "assignee")
	}
	return assignee, status, nil
}

func (s *GlobalTaskService) CreateTask(ctx context.Context, actor *models.User, req models.GlobalTaskRequest) (*models.GlobalTask, error) {
	assignee, status, err := s.checkTask(ctx, req)
	if err != nil {
		return nil, err
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	task, err := s.tasks.CreateTask(ctx, &models.GlobalTask{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      status,
		AssigneeID:  assignee,
		Tags:        tags,
		CreatedBy:   actor.ID,
	})
	if err != nil {
		return nil, err
	}
	track(ctx, s.tracker, actor, 0, "Created new global task %s", task.Title)
	return task, nil
}

func (s *GlobalTaskService) GetTask(ctx context.Context, id primitive.ObjectID) (*models.GlobalTask, error) {
	task, err := s.tasks.FindTaskByID(ctx, id)
	return task, notFound(err, "task")
}

func (s *GlobalTaskService) UpdateTask(ctx context.Context, actor *models.User, id primitive.ObjectID, req models.GlobalTaskRequest) (*models.GlobalTask, error) {
	if _, err := s.GetTask(ctx, id); err != nil {
		return nil, err
	}
	assignee, status, err := s.checkTask(ctx, req)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"title":       strings.TrimSpace(req.Title),
		"description": req.Description,
		"status":      status,
		"assignee_id": assignee,
	}
	if req.Tags != nil {
		update["tags"] = req.Tags
	}
	task, err := s.tasks.UpdateTask(ctx, id, update)
	if err != nil {
		return nil, notFound(err, "task")
	}
	track(ctx, s.tracker, actor, 0, "Updated global task %s", task.Title)
	return task, nil
}

func (s *GlobalTaskService) DeleteTask(ctx context.Context, actor *models.User, id primitive.ObjectID) error {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(ctx, id); err != nil {
		return notFound(err, "task")
	}
	track(ctx, s.tracker, actor, 0, "Deleted global task %s", task.Title)
	return nil
}

func (s *GlobalTaskService) ListTasks(ctx context.Context, q models.ListQuery) (models.Page[models.GlobalTask], error) {
	items, total, err := s.tasks.ListTasks(ctx, q)
	if err != nil {
		return models.Page[models.GlobalTask]{}, err
	}
	return models.NewPage(items, total, q), nil
}
