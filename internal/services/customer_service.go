package services

import (
	"context"
	"strings"

	"iris-server/internal/models"
	"iris-server/pkg/apperrors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CustomerStore interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	FindCustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	NameTaken(ctx context.Context, name string, exclude primitive.ObjectID) (bool, error)
	UpdateCustomer(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id primitive.ObjectID) error
	ListCustomers(ctx context.Context, q models.ListQuery) ([]models.Customer, int64, error)
}

type CaseCounter interface {
	CountCasesForCustomer(ctx context.Context, customerID primitive.ObjectID) (int64, error)
}

type CustomerService struct {
	customers CustomerStore
	cases     CaseCounter
	tracker   ActivityTracker
}

func NewCustomerService(customers CustomerStore, cases CaseCounter, tracker ActivityTracker) *CustomerService {
	return &CustomerService{customers: customers, cases: cases, tracker: tracker}
}

// CreateCustomer checks the name before anything is written.
func (s *CustomerService) CreateCustomer(ctx context.Context, actor *models.User, req models.CustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, primitive.NilObjectID); err != nil {
		return nil, err
	}

	customer, err := s.customers.CreateCustomer(ctx, &models.Customer{
		Name:        name,
		Description: req.Description,
		SLA:         req.SLA,
	})
	if mongo.IsDuplicateKeyError(err) {
		// lost a race with a concurrent create
		return nil, customerExists(name)
	}
	if err != nil {
		return nil, err
	}

	track(ctx, s.tracker, actor, 0, "Added customer %s", customer.Name)
	return customer, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	customer, err := s.customers.FindCustomerByID(ctx, id)
	return customer, notFound(err, "customer")
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, actor *models.User, id primitive.ObjectID, req models.CustomerRequest) (*models.Customer, error) {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	customer, err := s.customers.UpdateCustomer(ctx, id, bson.M{
		"name":        name,
		"description": req.Description,
		"sla":         req.SLA,
	})
	if mongo.IsDuplicateKeyError(err) {
		return nil, customerExists(name)
	}
	if err != nil {
		return nil, notFound(err, "customer")
	}

	track(ctx, s.tracker, actor, 0, "Updated customer %s", customer.Name)
	return customer, nil
}

// DeleteCustomer refuses while any case still references the customer.
func (s *CustomerService) DeleteCustomer(ctx context.Context, actor *models.User, id primitive.ObjectID) error {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.cases.CountCasesForCustomer(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperrors.Processing("Cannot delete a customer referenced by cases", map[string]int64{"cases": n})
	}
	if err := s.customers.DeleteCustomer(ctx, id); err != nil {
		return notFound(err, "customer")
	}

	track(ctx, s.tracker, actor, 0, "Deleted customer %s", customer.Name)
	return nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, q models.ListQuery) (models.Page[models.Customer], error) {
	items, total, err := s.customers.ListCustomers(ctx, q)
	if err != nil {
		return models.Page[models.Customer]{}, err
	}
	return models.NewPage(items, total, q), nil
}

func (s *CustomerService) ensureNameFree(ctx context.Context, name string, exclude primitive.ObjectID) error {
	taken, err := s.customers.NameTaken(ctx, name, exclude)
	if err != nil {
		return err
	}
	if taken {
		return customerExists(name)
	}
	return nil
}

func customerExists(name string) error {
	return apperrors.Processing("Customer already exists", map[string]string{"customer_name": name})
}
