package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/response"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/service"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/validator"
	"github.com/rs/zerolog"
)

// TestPlanHandler handles test plan endpoints.
type TestPlanHandler struct {
	planService *service.TestPlanService
	log         zerolog.Logger
}

// NewTestPlanHandler creates a new TestPlanHandler.
func NewTestPlanHandler(planService *service.TestPlanService, log zerolog.Logger) *TestPlanHandler {
	return &TestPlanHandler{
		planService: planService,
		log:         log.With().Str("component", "test_plan_handler").Logger(),
	}
}

// CreatePlan godoc
// POST /api/v1/test-plans
// Allocates the questions and returns the plan with its first execution.
func (h *TestPlanHandler) CreatePlan(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req model.CreateTestPlanRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.planService.Create(c.Request.Context(), a, req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"test_plan": view})
}

// ListPlans godoc
// GET /api/v1/test-plans?page=&per_page=
func (h *TestPlanHandler) ListPlans(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var q model.PageQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	plans, page, err := h.planService.List(c.Request.Context(), a, q)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	if plans == nil {
		plans = []model.TestPlan{}
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"test_plans": plans}, page)
}

// GetPlan godoc
// GET /api/v1/test-plans/:id
func (h *TestPlanHandler) GetPlan(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.planService.Get(c.Request.Context(), a, id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test_plan": view})
}

// UpdatePlan godoc
// PUT /api/v1/test-plans/:id
func (h *TestPlanHandler) UpdatePlan(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateTestPlanRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	plan, err := h.planService.Update(c.Request.Context(), a, id, req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test_plan": plan})
}

// DeletePlan godoc
// DELETE /api/v1/test-plans/:id
func (h *TestPlanHandler) DeletePlan(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.planService.Delete(c.Request.Context(), a, id); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "test plan deleted successfully"})
}

// ListExecutions godoc
// GET /api/v1/test-plans/:id/executions
func (h *TestPlanHandler) ListExecutions(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	executions, err := h.planService.ListExecutions(c.Request.Context(), a, id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"executions": executions})
}

// NewAttempt godoc
// POST /api/v1/test-plans/:id/executions
// Returns 201 with a freshly allocated execution, or 200 with the attempt
// that is still waiting to be started.
func (h *TestPlanHandler) NewAttempt(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, created, err := h.planService.NewAttempt(c.Request.Context(), a, id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"execution": view})
}
