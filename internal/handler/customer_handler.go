package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pointake/internal/domain"
	"pointake/internal/service"
)

// DefaultSearchLimit caps search results when no limit is given.
const DefaultSearchLimit = 50

// CustomerHandler handles customer directory endpoints.
type CustomerHandler struct {
	customerService service.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// parseSearchLimit reads the limit query value: empty means the default,
// "none" means unbounded.
func parseSearchLimit(raw string) (int, bool) {
	switch raw {
	case "":
		return DefaultSearchLimit, true
	case "none":
		return domain.SearchUnbounded, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Search handles GET /api/v1/customers/search
// @Summary Search customers
// @Description Case-insensitive token search over customer ids and names. limit=none returns every match.
// @Tags customers
// @Produce json
// @Param q query string false "Free-text query"
// @Param limit query string false "Max results, or none" default(50)
// @Success 200 {object} Response{data=[]domain.Customer}
// @Failure 400 {object} ErrorResponseBody "Invalid limit"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /customers/search [get]
func (h *CustomerHandler) Search(c *gin.Context) {
	limit, ok := parseSearchLimit(c.Query("limit"))
	if !ok {
		RespondError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer or none")
		return
	}

	customers, err := h.customerService.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, customers, PagMeta{Total: len(customers), Limit: limit})
}

// GetByID handles GET /api/v1/customers/:id
// @Summary Get a customer
// @Tags customers
// @Produce json
// @Param id path string true "Customer row ID"
// @Success 200 {object} Response{data=domain.Customer}
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Security BearerAuth
// @Router /customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, customer)
}

// Create handles POST /api/v1/customers
// @Summary Create a customer
// @Tags customers
// @Accept json
// @Produce json
// @Param body body service.CustomerInput true "Customer"
// @Success 201 {object} Response{data=domain.Customer}
// @Failure 400 {object} ErrorResponseBody "Validation error"
// @Failure 403 {object} ErrorResponseBody "Admin only"
// @Failure 409 {object} ErrorResponseBody "Duplicate customer id"
// @Security BearerAuth
// @Router /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	_, role, ok := extractUser(c)
	if !ok {
		return
	}

	var input service.CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), role, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, customer)
}

// Update handles PUT /api/v1/customers/:id
// @Summary Replace a customer
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "Customer row ID"
// @Param body body service.CustomerInput true "Customer"
// @Success 200 {object} Response{data=domain.Customer}
// @Failure 400 {object} ErrorResponseBody "Validation error"
// @Failure 403 {object} ErrorResponseBody "Admin only"
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Security BearerAuth
// @Router /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	_, role, ok := extractUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var input service.CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), role, id, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, customer)
}

// Delete handles DELETE /api/v1/customers/:id
// @Summary Delete a customer
// @Tags customers
// @Produce json
// @Param id path string true "Customer row ID"
// @Success 200 {object} Response{data=MessageResponse}
// @Failure 403 {object} ErrorResponseBody "Admin only"
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Security BearerAuth
// @Router /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	_, role, ok := extractUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), role, id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, MessageResponse{Message: "customer deleted"})
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
