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

type AdminUserHandler struct {
	userService *service.UserService
	log         zerolog.Logger
}

func NewAdminUserHandler(userService *service.UserService, log zerolog.Logger) *AdminUserHandler {
	return &AdminUserHandler{
		userService: userService,
		log:         log.With().Str("component", "admin_user_handler").Logger(),
	}
}

// ListUsers godoc
// GET /api/v1/admin/users?role=&search=&page=&per_page=
func (h *AdminUserHandler) ListUsers(c *gin.Context) {
	var q model.UserListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	users, page, err := h.userService.List(c.Request.Context(), q)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"users": users}, page)
}

// CreateUser godoc
// POST /api/v1/admin/users
func (h *AdminUserHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": user})
}
