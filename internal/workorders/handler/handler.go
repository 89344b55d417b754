// Package handler exposes the work-order lifecycle over HTTP.
package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"inspection_portal_backend/internal/adapters/storage"
	"inspection_portal_backend/internal/workorders/domain"
	"inspection_portal_backend/internal/workorders/photos"
	"inspection_portal_backend/internal/workorders/repository"
	"inspection_portal_backend/internal/workorders/service"
	"inspection_portal_backend/internal/workorders/transport"
	"inspection_portal_backend/platform/httpkit"
	"inspection_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	// RoleAdmin marks callers allowed to create, reopen, assign and delete.
	RoleAdmin = "admin"
)

// Handler handles HTTP requests for work orders.
type Handler struct {
	svc     *service.Service
	storage storage.Service
	val     *validator.Validator
}

// New creates a new work-order handler.
func New(svc *service.Service, storageSvc storage.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, storage: storageSvc, val: val}
}

// RegisterRoutes adds work-order routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("", httpkit.RequireRole(RoleAdmin), h.Create)
	rg.POST("/:id/start", h.Start)
	rg.POST("/:id/complete", h.Complete)
	rg.POST("/:id/reopen", httpkit.RequireRole(RoleAdmin), h.Reopen)
	rg.POST("/:id/complete-integration", h.CompleteIntegration)
	rg.POST("/:id/assign", httpkit.RequireRole(RoleAdmin), h.Assign)
	rg.POST("/:id/notes", h.AddNote)
	rg.DELETE("/:id", httpkit.RequireRole(RoleAdmin), h.Delete)
	rg.GET("/:id/photos/download", h.DownloadPhoto)
}

// Create opens a new work order.
func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	specs := make([]domain.FieldSpec, 0, len(req.FieldSpecs))
	for _, p := range req.FieldSpecs {
		specs = append(specs, p.ToDomain())
	}

	wo, err := h.svc.Create(c.Request.Context(), service.CreateParams{
		CondominiumID:  req.CondominiumID,
		Priority:       domain.Priority(req.Priority),
		AssignedUserID: req.AssignedUserID,
		FieldSpecs:     specs,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToWorkOrderResponse(wo, nil))
}

// Get returns one work order.
func (h *Handler) Get(c *gin.Context) {
	if identity := httpkit.MustGetIdentity(c); identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	wo, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToWorkOrderResponse(wo, nil))
}

// List returns work orders, optionally filtered by state or assignee.
func (h *Handler) List(c *gin.Context) {
	if identity := httpkit.MustGetIdentity(c); identity == nil {
		return
	}

	var filter repository.ListFilter
	if raw := c.Query("state"); raw != "" {
		state := domain.State(raw)
		filter.State = &state
	}
	if raw := c.Query("assignedUserId"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		filter.AssignedUserID = &userID
	}
	if raw := c.Query("condominiumId"); raw != "" {
		condoID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		filter.CondominiumID = &condoID
	}

	orders, err := h.svc.List(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.WorkOrderResponse, 0, len(orders))
	for _, wo := range orders {
		responses = append(responses, transport.ToWorkOrderResponse(wo, nil))
	}
	httpkit.OK(c, responses)
}

// Start marks work on a work order as begun.
func (h *Handler) Start(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	wo, err := h.svc.Start(c.Request.Context(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToWorkOrderResponse(wo, nil))
}

// Complete submits the inspector's collected data and photo batch.
// The request is either plain JSON, or multipart/form-data with a "payload"
// JSON part plus photo file parts named after their logical field.
func (h *Handler) Complete(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.CompleteRequest
	uploads, ok := h.bindWithPhotos(c, &req)
	if !ok {
		return
	}

	result, err := h.svc.Complete(c.Request.Context(), id, identity.UserID(), service.CompleteParams{
		Data:          req.Data,
		Note:          req.Note,
		PhotosByField: uploads,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToWorkOrderResponse(result.WorkOrder, result.Warnings))
}

// Reopen sends a completed work order back for recompilation.
func (h *Handler) Reopen(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.ReopenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	newFields := make([]domain.FieldSpec, 0, len(req.NewFields))
	for _, p := range req.NewFields {
		newFields = append(newFields, p.ToDomain())
	}

	wo, err := h.svc.Reopen(c.Request.Context(), id, identity.UserID(), service.ReopenParams{
		Reason:              req.Reason,
		KeepFieldNames:      req.KeepFieldNames,
		RecompileFieldNames: req.RecompileFieldNames,
		NewFields:           newFields,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToWorkOrderResponse(wo, nil))
}

// CompleteIntegration resolves a reopened work order.
func (h *Handler) CompleteIntegration(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.CompleteIntegrationRequest
	uploads, ok := h.bindWithPhotos(c, &req)
	if !ok {
		return
	}

	result, err := h.svc.CompleteIntegration(c.Request.Context(), id, identity.UserID(), service.IntegrationParams{
		RecompiledValues:  req.RecompiledValues,
		NewFieldValues:    req.NewFieldValues,
		KeepPhotoPaths:    req.KeepPhotoPaths,
		NewUploadsByField: uploads,
		IntegrationReason: req.IntegrationReason,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToWorkOrderResponse(result.WorkOrder, result.Warnings))
}

// Assign sets the responsible inspector.
func (h *Handler) Assign(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	wo, err := h.svc.Assign(c.Request.Context(), id, identity.UserID(), req.AssignedUserID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToWorkOrderResponse(wo, nil))
}

// AddNote appends a free-text note.
func (h *Handler) AddNote(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	wo, err := h.svc.AddNote(c.Request.Context(), id, identity.UserID(), req.Body)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToWorkOrderResponse(wo, nil))
}

// Delete destroys a work order. Irreversible.
func (h *Handler) Delete(c *gin.Context) {
	if identity := httpkit.MustGetIdentity(c); identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadPhoto returns a presigned download URL for a stored photo.
func (h *Handler) DownloadPhoto(c *gin.Context) {
	if identity := httpkit.MustGetIdentity(c); identity == nil {
		return
	}
	if _, ok := parseID(c); !ok {
		return
	}

	key := c.Query("key")
	if key == "" {
		httpkit.Error(c, http.StatusBadRequest, "key query parameter is required", nil)
		return
	}

	presigned, err := h.storage.GenerateDownloadURL(c.Request.Context(), key)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to generate download URL", nil)
		return
	}
	httpkit.OK(c, presigned)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}

// bindWithPhotos decodes the request body into dest. Multipart requests carry
// the JSON in a "payload" part and photo files in parts named after their
// logical field; plain JSON requests carry no photos.
func (h *Handler) bindWithPhotos(c *gin.Context, dest interface{}) (map[string][]photos.Upload, bool) {
	contentType := c.ContentType()
	if !strings.HasPrefix(contentType, "multipart/") {
		if err := c.ShouldBindJSON(dest); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return nil, false
		}
		return nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return nil, false
	}

	if payload := form.Value["payload"]; len(payload) > 0 {
		if err := json.Unmarshal([]byte(payload[0]), dest); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return nil, false
		}
	}

	uploads := make(map[string][]photos.Upload)
	for field, headers := range form.File {
		for _, header := range headers {
			fileContentType := header.Header.Get("Content-Type")
			if err := h.storage.ValidateContentType(fileContentType); err != nil {
				httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
				return nil, false
			}
			if err := h.storage.ValidateFileSize(header.Size); err != nil {
				httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
				return nil, false
			}

			file, err := header.Open()
			if err != nil {
				httpkit.Error(c, http.StatusBadRequest, "failed to read uploaded file", nil)
				return nil, false
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				httpkit.Error(c, http.StatusBadRequest, "failed to read uploaded file", nil)
				return nil, false
			}

			uploads[field] = append(uploads[field], photos.Upload{
				FileName:    header.Filename,
				ContentType: fileContentType,
				Data:        data,
			})
		}
	}

	return uploads, true
}
