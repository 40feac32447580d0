package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/response"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/service"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/validator"
	"github.com/rs/zerolog"
)

// ExecutionHandler drives the execution state machine over HTTP.
type ExecutionHandler struct {
	executionService *service.ExecutionService
	log              zerolog.Logger
}

// NewExecutionHandler creates a new ExecutionHandler.
func NewExecutionHandler(executionService *service.ExecutionService, log zerolog.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		executionService: executionService,
		log:              log.With().Str("component", "execution_handler").Logger(),
	}
}

type transitionFunc func(ctx context.Context, a service.Actor, id identity.ID) (*model.ExecutionView, error)

// transition serves the body-less state changes.
func (h *ExecutionHandler) transition(fn transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		view, err := fn(c.Request.Context(), a, id)
		if err != nil {
			failWithError(c, h.log, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"execution": view})
	}
}

// GetExecution godoc
// GET /api/v1/executions/:id
func (h *ExecutionHandler) GetExecution(c *gin.Context) {
	h.transition(h.executionService.Get)(c)
}

// Start godoc
// POST /api/v1/executions/:id/start
func (h *ExecutionHandler) Start(c *gin.Context) {
	h.transition(h.executionService.Start)(c)
}

// Pause godoc
// POST /api/v1/executions/:id/pause
func (h *ExecutionHandler) Pause(c *gin.Context) {
	h.transition(h.executionService.Pause)(c)
}

// Resume godoc
// POST /api/v1/executions/:id/resume
func (h *ExecutionHandler) Resume(c *gin.Context) {
	h.transition(h.executionService.Resume)(c)
}

// Complete godoc
// POST /api/v1/executions/:id/complete
// Scores the execution and reveals the answer keys.
func (h *ExecutionHandler) Complete(c *gin.Context) {
	h.transition(h.executionService.Complete)(c)
}

// Abandon godoc
// POST /api/v1/admin/executions/:id/abandon
func (h *ExecutionHandler) Abandon(c *gin.Context) {
	h.transition(h.executionService.Abandon)(c)
}

// SubmitAnswer godoc
// POST /api/v1/executions/:id/answers
func (h *ExecutionHandler) SubmitAnswer(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.executionService.SubmitAnswer(c.Request.Context(), a, id, req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"execution": view})
}

// SubmitAll godoc
// POST /api/v1/executions/:id/submit
// Records a batch of answers and stamps the end time. Scoring happens on
// complete.
func (h *ExecutionHandler) SubmitAll(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.SubmitAllAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.executionService.SubmitAll(c.Request.Context(), a, id, req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"execution": view})
}
