package services

import (
	"context"
	"fmt"
	"strings"

	"iris-server/internal/models"
	"iris-server/pkg/apperrors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type GroupStore interface {
	CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error)
	FindGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error)
	NameTaken(ctx context.Context, name string, exclude primitive.ObjectID) (bool, error)
	UpdateGroup(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Group, error)
	DeleteGroup(ctx context.Context, id primitive.ObjectID) error
	ListGroups(ctx context.Context, q models.ListQuery) ([]models.Group, int64, error)
	AddMembers(ctx context.Context, groupID primitive.ObjectID, userIDs []primitive.ObjectID) (*models.Group, error)
	RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) (*models.Group, error)
	GroupsForMember(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error)
}

type UserCounter interface {
	CountExisting(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

// GroupService manages groups and answers permission questions: a user's
// effective permissions are their own plus those of every group they belong to.
type GroupService struct {
	groups  GroupStore
	users   UserCounter
	tracker ActivityTracker
}

func NewGroupService(groups GroupStore, users UserCounter, tracker ActivityTracker) *GroupService {
	return &GroupService{groups: groups, users: users, tracker: tracker}
}

func (s *GroupService) HasPermission(ctx context.Context, user *models.User, perm models.Permission) (bool, error) {
	if user.HasPermission(perm) {
		return true, nil
	}
	groups, err := s.groups.GroupsForMember(ctx, user.ID)
	if err != nil {
		return false, err
	}
	for _, g := range groups {
		for _, p := range g.Permissions {
			if p == perm || p == models.PermServerAdministrator {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *GroupService) EffectivePermissions(ctx context.Context, user *models.User) ([]models.Permission, error) {
	groups, err := s.groups.GroupsForMember(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	seen := map[models.Permission]bool{}
	out := []models.Permission{}
	add := func(p models.Permission) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range user.Permissions {
		add(p)
	}
	for _, g := range groups {
		for _, p := range g.Permissions {
			add(p)
		}
	}
	return out, nil
}

func validatePermissions(perms []models.Permission) error {
	var unknown []string
	for _, p := range perms {
		if !models.KnownPermissions[p] {
			unknown = append(unknown, string(p))
		}
	}
	if len(unknown) > 0 {
		return apperrors.Processing("Unknown permissions", map[string]interface{}{"group_permissions": unknown})
	}
	return nil
}

func (s *GroupService) CreateGroup(ctx context.Context, actor *models.User, req models.GroupRequest) (*models.Group, error) {
	name := strings.TrimSpace(req.Name)
	if err := validatePermissions(req.Permissions); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, primitive.NilObjectID); err != nil {
		return nil, err
	}

	perms := req.Permissions
	if perms == nil {
		perms = []models.Permission{}
	}
	group, err := s.groups.CreateGroup(ctx, &models.Group{
		Name:        name,
		Description: req.Description,
		Permissions: perms,
	})
	if mongo.IsDuplicateKeyError(err) {
		return nil, groupExists(name)
	}
	if err != nil {
		return nil, err
	}

	track(ctx, s.tracker, actor, 0, "Added group %s", group.Name)
	return group, nil
}

func (s *GroupService) GetGroup(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	group, err := s.groups.FindGroupByID(ctx, id)
	return group, notFound(err, "group")
}

func (s *GroupService) UpdateGroup(ctx context.Context, actor *models.User, id primitive.ObjectID, req models.GroupRequest) (*models.Group, error) {
	if _, err := s.GetGroup(ctx, id); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := validatePermissions(req.Permissions); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	update := bson.M{"name": name, "description": req.Description}
	if req.Permissions != nil {
		update["permissions"] = req.Permissions
	}
	group, err := s.groups.UpdateGroup(ctx, id, update)
	if mongo.IsDuplicateKeyError(err) {
		return nil, groupExists(name)
	}
	if err != nil {
		return nil, notFound(err, "group")
	}

	track(ctx, s.tracker, actor, 0, "Updated group %s", group.Name)
	return group, nil
}

func (s *GroupService) DeleteGroup(ctx context.Context, actor *models.User, id primitive.ObjectID) error {
	group, err := s.GetGroup(ctx, id)
	if err != nil {
		return err
	}
	if err := s.groups.DeleteGroup(ctx, id); err != nil {
		return notFound(err, "group")
	}
	track(ctx, s.tracker, actor, 0, "Deleted group %s", group.Name)
	return nil
}

func (s *GroupService) ListGroups(ctx context.Context, q models.ListQuery) (models.Page[models.Group], error) {
	items, total, err := s.groups.ListGroups(ctx, q)
	if err != nil {
		return models.Page[models.Group]{}, err
	}
	return models.NewPage(items, total, q), nil
}

// AddMembers refuses the whole batch if any id is malformed or unknown.
func (s *GroupService) AddMembers(ctx context.Context, actor *models.User, groupID primitive.ObjectID, rawIDs []string) (*models.Group, error) {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	seen := map[primitive.ObjectID]bool{}
	ids := make([]primitive.ObjectID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, apperrors.Processing(fmt.Sprintf("Invalid user id %q", raw), nil)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	count, err := s.users.CountExisting(ctx, ids)
	if err != nil {
		return nil, err
	}
	if count != int64(len(ids)) {
		return nil, apperrors.NotFound("user")
	}

	group, err := s.groups.AddMembers(ctx, groupID, ids)
	if err != nil {
		return nil, notFound(err, "group")
	}
	track(ctx, s.tracker, actor, 0, "Added %d members to group %s", len(ids), group.Name)
	return group, nil
}

func (s *GroupService) RemoveMember(ctx context.Context, actor *models.User, groupID, userID primitive.ObjectID) (*models.Group, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	member := false
	for _, m := range group.Members {
		if m == userID {
			member = true
			break
		}
	}
	if !member {
		return nil, apperrors.NotFound("group member")
	}

	group, err = s.groups.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return nil, notFound(err, "group")
	}
	track(ctx, s.tracker, actor, 0, "Removed member %s from group %s", userID.Hex(), group.Name)
	return group, nil
}

func (s *GroupService) ensureNameFree(ctx context.Context, name string, exclude primitive.ObjectID) error {
	taken, err := s.groups.NameTaken(ctx, name, exclude)
	if err != nil {
		return err
	}
	if taken {
		return groupExists(name)
	}
	return nil
}

func groupExists(name string) error {
	return apperrors.Processing("Group name already exists", map[string]string{"group_name": name})
}
