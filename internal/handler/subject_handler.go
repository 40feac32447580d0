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

// SubjectHandler serves the subject, topic and subtopic catalogue.
type SubjectHandler struct {
	subjectService *service.SubjectService
	log            zerolog.Logger
}

func NewSubjectHandler(subjectService *service.SubjectService, log zerolog.Logger) *SubjectHandler {
	return &SubjectHandler{
		subjectService: subjectService,
		log:            log.With().Str("component", "subject_handler").Logger(),
	}
}

// ─── Subjects ────────────────────────────────────────────────────────

// ListSubjects godoc
// GET /api/v1/subjects
func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.subjectService.ListSubjects(c.Request.Context())
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}
	response.Success(c, http.StatusOK, gin.H{"subjects": subjects})
}

// GetSubject godoc
// GET /api/v1/subjects/:id
func (h *SubjectHandler) GetSubject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	subject, err := h.subjectService.GetSubject(c.Request.Context(), id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subject": subject})
}

// CreateSubject godoc
// POST /api/v1/subjects
func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	var req model.SubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	subject, err := h.subjectService.CreateSubject(c.Request.Context(), req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"subject": subject})
}

// UpdateSubject godoc
// PUT /api/v1/subjects/:id
func (h *SubjectHandler) UpdateSubject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.SubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	subject, err := h.subjectService.UpdateSubject(c.Request.Context(), id, req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subject": subject})
}

// DeleteSubject godoc
// DELETE /api/v1/subjects/:id
func (h *SubjectHandler) DeleteSubject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.subjectService.DeleteSubject(c.Request.Context(), id); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "subject deleted successfully"})
}

// ─── Topics ──────────────────────────────────────────────────────────

// ListTopics godoc
// GET /api/v1/subjects/:id/topics
func (h *SubjectHandler) ListTopics(c *gin.Context) {
	subjectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	topics, err := h.subjectService.ListTopics(c.Request.Context(), subjectID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	if topics == nil {
		topics = []model.Topic{}
	}
	response.Success(c, http.StatusOK, gin.H{"topics": topics})
}

// CreateTopic godoc
// POST /api/v1/subjects/:id/topics
func (h *SubjectHandler) CreateTopic(c *gin.Context) {
	subjectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.TopicRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	topic, err := h.subjectService.CreateTopic(c.Request.Context(), subjectID, req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"topic": topic})
}

// UpdateTopic godoc
// PUT /api/v1/topics/:id
func (h *SubjectHandler) UpdateTopic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.TopicRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	topic, err := h.subjectService.UpdateTopic(c.Request.Context(), id, req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"topic": topic})
}

// DeleteTopic godoc
// DELETE /api/v1/topics/:id
func (h *SubjectHandler) DeleteTopic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.subjectService.DeleteTopic(c.Request.Context(), id); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "topic deleted successfully"})
}

// ─── Subtopics ───────────────────────────────────────────────────────

// ListSubtopics godoc
// GET /api/v1/topics/:id/subtopics
func (h *SubjectHandler) ListSubtopics(c *gin.Context) {
	topicID, ok := pathID(c, "id")
	if !ok {
		return
	}
	subtopics, err := h.subjectService.ListSubtopics(c.Request.Context(), topicID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	if subtopics == nil {
		subtopics = []model.Subtopic{}
	}
	response.Success(c, http.StatusOK, gin.H{"subtopics": subtopics})
}

// CreateSubtopic godoc
// POST /api/v1/topics/:id/subtopics
func (h *SubjectHandler) CreateSubtopic(c *gin.Context) {
	topicID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.TopicRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	subtopic, err := h.subjectService.CreateSubtopic(c.Request.Context(), topicID, req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"subtopic": subtopic})
}

// UpdateSubtopic godoc
// PUT /api/v1/subtopics/:id
func (h *SubjectHandler) UpdateSubtopic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.TopicRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	subtopic, err := h.subjectService.UpdateSubtopic(c.Request.Context(), id, req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subtopic": subtopic})
}

// DeleteSubtopic godoc
// DELETE /api/v1/subtopics/:id
func (h *SubjectHandler) DeleteSubtopic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.subjectService.DeleteSubtopic(c.Request.Context(), id); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "subtopic deleted successfully"})
}
