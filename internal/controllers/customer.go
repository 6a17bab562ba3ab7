package controllers

import (
	"context"
	"net/http"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CustomerManager interface {
	CreateCustomer(ctx context.Context, actor *models.User, req models.CustomerRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, actor *models.User, id primitive.ObjectID, req models.CustomerRequest) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, actor *models.User, id primitive.ObjectID) error
	ListCustomers(ctx context.Context, q models.ListQuery) (models.Page[models.Customer], error)
}

type CustomerController struct {
	customers CustomerManager
}

func NewCustomerController(customers CustomerManager) *CustomerController {
	return &CustomerController{customers: customers}
}

// CreateCustomer godoc
// @Summary Add a customer
// @Description Names are unique regardless of case.
// @Tags Customers
// @Security BearerAuth
// @Param body body models.CustomerRequest true "Customer"
// @Success 201 {object} models.Customer
// @Failure 400 {object} gin.H{"message":string,"data":object}
// @Failure 403 {object} gin.H{"message":string}
// @Router /manage/customers [post]
func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req models.CustomerRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	customer, err := cc.customers.CreateCustomer(c.Request.Context(), user, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, "Customer added", customer)
}

func (cc *CustomerController) GetCustomer(c *gin.Context) {
	id, ok := idParam(c, "id", "customer")
	if !ok {
		return
	}
	customer, err := cc.customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "", customer)
}

func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "customer")
	if !ok {
		return
	}
	var req models.CustomerRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	customer, err := cc.customers.UpdateCustomer(c.Request.Context(), user, id, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Customer updated", customer)
}

func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "customer")
	if !ok {
		return
	}
	if err := cc.customers.DeleteCustomer(c.Request.Context(), user, id); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Customer deleted", nil)
}

func (cc *CustomerController) ListCustomers(c *gin.Context) {
	q := utils.ParseListQuery(c)
	page, err := cc.customers.ListCustomers(c.Request.Context(), q)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithPage(c, "", page, q.Fields)
}
