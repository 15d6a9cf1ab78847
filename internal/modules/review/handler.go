package review

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pawlink/core/internal/middleware"
	"github.com/pawlink/core/internal/models"
	"github.com/pawlink/core/internal/pkg/pagination"
	"github.com/pawlink/core/internal/pkg/response"
	"github.com/pawlink/core/internal/pkg/taskqueue"
	"gorm.io/gorm"
)

// Handler exposes the review endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the review and task routes on the group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	reviews := rg.Group("/reviews")
	{
		reviews.POST("/suggestion", authMW, h.suggest)
		reviews.POST("", authMW, h.create)
		reviews.GET("", h.list)
	}

	rg.POST("/conversations/:id/messages/notify", authMW, h.notify)

	tasks := rg.Group("/ai/tasks", authMW)
	{
		tasks.GET("", h.listTasks)
		tasks.GET("/:id", h.getTask)
		tasks.DELETE("/:id", h.deleteTask)
		tasks.DELETE("", h.deleteFinishedTasks)
	}
}

type suggestBody struct {
	TargetID       string `json:"target_id" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

// suggest drafts a review for the authenticated user about the target. The
// pipeline is fail-soft, so this always answers 200 with a usable suggestion
// once the target is known to exist.
func (h *Handler) suggest(c *gin.Context) {
	var body suggestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "target_id is required")
		return
	}

	reviewerID := middleware.CurrentUserID(c)
	reviewer, err := h.svc.Profile(reviewerID)
	if err != nil {
		response.Unauthorized(c)
		return
	}
	target, err := h.svc.Profile(body.TargetID)
	if err != nil {
		response.NotFoundMsg(c, "target user not found")
		return
	}

	sug := h.svc.GenerateReviewSuggestion(c.Request.Context(), SuggestionRequest{
		ReviewerID:     reviewerID,
		TargetID:       body.TargetID,
		Reviewer:       reviewer,
		Target:         target,
		ConversationID: body.ConversationID,
	})
	response.OK(c, sug)
}

type createReviewBody struct {
	TargetID       string   `json:"target_id" binding:"required"`
	ConversationID string   `json:"conversation_id"`
	Rating         float64  `json:"rating" binding:"required"`
	Comment        string   `json:"comment"`
	Highlights     []string `json:"highlights"`
	AIAssisted     bool     `json:"ai_assisted"`
}

func (h *Handler) create(c *gin.Context) {
	var body createReviewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid review payload")
		return
	}
	if body.Rating < 1 || body.Rating > 5 {
		response.BadRequest(c, "rating must be between 1 and 5")
		return
	}
	reviewerID := middleware.CurrentUserID(c)
	if body.TargetID == reviewerID {
		response.BadRequest(c, "cannot review yourself")
		return
	}
	if _, err := h.svc.Profile(body.TargetID); err != nil {
		response.NotFoundMsg(c, "target user not found")
		return
	}

	review := models.ReviewModel{
		ReviewerID:     reviewerID,
		TargetID:       body.TargetID,
		ConversationID: body.ConversationID,
		Rating:         snapRating(body.Rating),
		Comment:        truncateRunes(body.Comment, h.svc.opts.CommentMaxRunes),
		Highlights:     body.Highlights,
		AIAssisted:     body.AIAssisted,
	}
	if err := h.svc.db.Create(&review).Error; err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, review)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)

	query := h.svc.db.Model(&models.ReviewModel{}).Order("created_at DESC")
	if targetID := c.Query("target_id"); targetID != "" {
		query = query.Where("target_id = ?", targetID)
	}
	if reviewerID := c.Query("reviewer_id"); reviewerID != "" {
		query = query.Where("reviewer_id = ?", reviewerID)
	}

	var reviews []models.ReviewModel
	meta, err := pagination.Paginate(query.Session(&gorm.Session{}), q, &reviews)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, reviews, meta)
}

type notifyBody struct {
	TargetID string `json:"target_id" binding:"required"`
}

// notify schedules an incremental context build after new messages land in a
// conversation. The created (or deduplicated) task record is returned so the
// caller can poll its status.
func (h *Handler) notify(c *gin.Context) {
	var body notifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "target_id is required")
		return
	}
	conversationID := c.Param("id")
	reviewerID := middleware.CurrentUserID(c)

	task, err := h.svc.NotifyMessage(c.Request.Context(), conversationID, reviewerID, body.TargetID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if task == nil {
		response.NoContent(c)
		return
	}
	response.Created(c, task)
}

func (h *Handler) listTasks(c *gin.Context) {
	if h.svc.taskSvc == nil {
		response.NotFound(c)
		return
	}
	q := pagination.FromContext(c)
	tasks, total, err := h.svc.taskSvc.List(c.Request.Context(), q.Page, q.Size, taskqueue.Filter{
		Type:     c.Query("type"),
		Status:   taskqueue.TaskStatus(c.Query("status")),
		GroupKey: c.Query("group_key"),
	})
	if err != nil {
		response.InternalError(c, err)
		return
	}
	totalPage := int((total + int64(q.Size) - 1) / int64(q.Size))
	response.Paged(c, tasks, response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	})
}

func (h *Handler) getTask(c *gin.Context) {
	if h.svc.taskSvc == nil {
		response.NotFound(c)
		return
	}
	task, err := h.svc.taskSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if task == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, task)
}

func (h *Handler) deleteTask(c *gin.Context) {
	if h.svc.taskSvc == nil {
		response.NotFound(c)
		return
	}
	if err := h.svc.taskSvc.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}

func (h *Handler) deleteFinishedTasks(c *gin.Context) {
	if h.svc.taskSvc == nil {
		response.NotFound(c)
		return
	}
	var beforeMS int64
	if raw := c.Query("before"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(c, "before must be a unix millisecond timestamp")
			return
		}
		beforeMS = v
	}
	if err := h.svc.taskSvc.DeleteFinished(c.Request.Context(), beforeMS); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
