package services

import (
	"context"
	"fmt"
	"strings"

	"iris-server/internal/models"
	"iris-server/pkg/apperrors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CaseStore interface {
	CreateCase(ctx context.Context, c *models.Case) (*models.Case, error)
	FindCaseByID(ctx context.Context, id int64) (*models.Case, error)
	CaseExists(ctx context.Context, id int64) (bool, error)
	ListCases(ctx context.Context, ids []int64, q models.ListQuery) ([]models.Case, int64, error)
	SetAccess(ctx context.Context, access models.CaseAccess) error
	AccessLevel(ctx context.Context, caseID int64, userID primitive.ObjectID) (models.AccessLevel, error)
	CaseIDsWithAccess(ctx context.Context, userID primitive.ObjectID, level models.AccessLevel) ([]int64, error)
}

type CustomerFinder interface {
	FindCustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
}

type UserFinder interface {
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// CaseService owns case access control. Rooms of the relay are named after
// case ids, so the same checks guard REST routes and room joins.
type CaseService struct {
	cases     CaseStore
	customers CustomerFinder
	users     UserFinder
	perms     PermissionChecker
	tracker   ActivityTracker
}

func NewCaseService(cases CaseStore, customers CustomerFinder, users UserFinder, perms PermissionChecker, tracker ActivityTracker) *CaseService {
	return &CaseService{cases: cases, customers: customers, users: users, perms: perms, tracker: tracker}
}

func (s *CaseService) isAdmin(ctx context.Context, user *models.User) (bool, error) {
	return s.perms.HasPermission(ctx, user, models.PermServerAdministrator)
}

// AccessLevel returns the principal's level on an existing case.
// Administrators and the case owner always have full access.
func (s *CaseService) AccessLevel(ctx context.Context, user *models.User, caseID int64) (models.AccessLevel, error) {
	c, err := s.cases.FindCaseByID(ctx, caseID)
	if err != nil {
		return models.AccessNone, notFound(err, "case")
	}
	admin, err := s.isAdmin(ctx, user)
	if err != nil {
		return models.AccessNone, err
	}
	if admin || c.OwnerID == user.ID {
		return models.AccessFull, nil
	}
	return s.cases.AccessLevel(ctx, caseID, user.ID)
}

// CheckCaseAccess returns a not-found error for a missing case and a
// forbidden one when the principal's level is below level.
func (s *CaseService) CheckCaseAccess(ctx context.Context, user *models.User, caseID int64, level models.AccessLevel) error {
	have, err := s.AccessLevel(ctx, user, caseID)
	if err != nil {
		return err
	}
	if have < level {
		return fmt.Errorf("%s requires %s on %s: %w", user.Username, level, caseLabel(caseID), apperrors.ErrForbidden)
	}
	return nil
}

// ReadableCaseIDs returns nil when the user may read every case.
func (s *CaseService) ReadableCaseIDs(ctx context.Context, user *models.User) ([]int64, error) {
	admin, err := s.isAdmin(ctx, user)
	if err != nil {
		return nil, err
	}
	if admin {
		return nil, nil
	}
	return s.cases.CaseIDsWithAccess(ctx, user.ID, models.AccessRead)
}

func (s *CaseService) CreateCase(ctx context.Context, actor *models.User, req models.CreateCaseRequest) (*models.Case, error) {
	customerID, err := primitive.ObjectIDFromHex(req.CustomerID)
	if err != nil {
		return nil, apperrors.NotFound("customer")
	}
	if _, err := s.customers.FindCustomerByID(ctx, customerID); err != nil {
		return nil, notFound(err, "customer")
	}

	c, err := s.cases.CreateCase(ctx, &models.Case{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CustomerID:  customerID,
		OwnerID:     actor.ID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.cases.SetAccess(ctx, models.CaseAccess{CaseID: c.ID, UserID: actor.ID, Level: models.AccessFull}); err != nil {
		return nil, err
	}

	track(ctx, s.tracker, actor, c.ID, "Created %s %s", caseLabel(c.ID), c.Name)
	return c, nil
}

func (s *CaseService) GetCase(ctx context.Context, caseID int64) (*models.Case, error) {
	c, err := s.cases.FindCaseByID(ctx, caseID)
	return c, notFound(err, "case")
}

func (s *CaseService) ListCases(ctx context.Context, user *models.User, q models.ListQuery) (models.Page[models.Case], error) {
	ids, err := s.ReadableCaseIDs(ctx, user)
	if err != nil {
		return models.Page[models.Case]{}, err
	}
	items, total, err := s.cases.ListCases(ctx, ids, q)
	if err != nil {
		return models.Page[models.Case]{}, err
	}
	return models.NewPage(items, total, q), nil
}

func (s *CaseService) SetCaseAccess(ctx context.Context, actor *models.User, caseID int64, req models.SetCaseAccessRequest) (*models.CaseAccess, error) {
	level, ok := models.ParseAccessLevel(req.AccessLevel)
	if !ok {
		return nil, apperrors.Invalid("access_level", "must be one of: deny_all read_only full_access")
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return nil, apperrors.NotFound("user")
	}
	if _, err := s.users.FindUserByID(ctx, userID); err != nil {
		return nil, notFound(err, "user")
	}
	if exists, err := s.cases.CaseExists(ctx, caseID); err != nil {
		return nil, err
	} else if !exists {
		return nil, apperrors.NotFound("case")
	}

	access := models.CaseAccess{CaseID: caseID, UserID: userID, Level: level}
	if err := s.cases.SetAccess(ctx, access); err != nil {
		return nil, err
	}
	track(ctx, s.tracker, actor, caseID, "Set %s access on %s for user %s", level, caseLabel(caseID), userID.Hex())
	return &access, nil
}
