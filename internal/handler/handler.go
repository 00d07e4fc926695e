// Package handler implements the REST surface: the orchestrated
// search_tours operation plus raw submit/poll pass-throughs for
// diagnostics. All failures are rendered as {success:false, error} data,
// never as bare HTTP errors.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alex-user-go/tours/internal/middleware"
	"github.com/alex-user-go/tours/internal/obs"
	"github.com/alex-user-go/tours/internal/search"
	"github.com/alex-user-go/tours/internal/search/types"
)

// Searcher is the orchestration engine behind the surface.
type Searcher interface {
	SearchTours(ctx context.Context, payload map[string]any) (*types.SearchResult, error)
	Submit(ctx context.Context, params map[string]any) (map[string]any, error)
	Poll(ctx context.Context, requestID string) (map[string]any, error)
}

// Handler handles HTTP requests.
type Handler struct {
	searcher Searcher
	logger   *zap.Logger
}

func New(searcher Searcher, logger *zap.Logger) *Handler {
	return &Handler{searcher: searcher, logger: logger}
}

// Register attaches all routes.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(obs.MetricsHandler()))
	r.POST("/search_tours", h.SearchTours)
	r.POST("/modsearch", h.Modsearch)
	r.GET("/modresult", h.ModresultGet)
	r.POST("/modresult", h.ModresultPost)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SearchTours runs the orchestrated search for a loosely-keyed payload.
func (h *Handler) SearchTours(c *gin.Context) {
	payload := map[string]any{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON payload"})
			return
		}
	}

	result, err := h.searcher.SearchTours(c.Request.Context(), payload)
	if err != nil {
		h.logger.Info("search finished without tours",
			zap.String("request_id", middleware.RequestID(c)),
			zap.Error(err))
		c.JSON(http.StatusOK, failureEnvelope(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"requestid": result.RequestID,
		"tours":     result.Tours,
	})
}

// Modsearch is the raw submit pass-through.
func (h *Handler) Modsearch(c *gin.Context) {
	params := map[string]any{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON payload"})
			return
		}
	}
	data, err := h.searcher.Submit(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// ModresultGet is the raw poll pass-through keyed by the requestid query
// parameter.
func (h *Handler) ModresultGet(c *gin.Context) {
	h.modresult(c, c.Query("requestid"))
}

// ModresultPost accepts {"requestid": ...} (or "search_id") in the body.
func (h *Handler) ModresultPost(c *gin.Context) {
	var body struct {
		RequestID string `json:"requestid"`
		SearchID  string `json:"search_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON payload"})
		return
	}
	id := body.RequestID
	if id == "" {
		id = body.SearchID
	}
	h.modresult(c, id)
}

func (h *Handler) modresult(c *gin.Context, requestID string) {
	if requestID == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "requestid is required"})
		return
	}
	data, err := h.searcher.Poll(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// failureEnvelope renders the error taxonomy as response data. Exhausted
// polls still expose the request id so the caller can keep polling.
func failureEnvelope(err error) gin.H {
	out := gin.H{"success": false, "error": err.Error()}
	var exhausted *search.PollExhaustedError
	if errors.As(err, &exhausted) && exhausted.RequestID != "" {
		out["requestid"] = exhausted.RequestID
	}
	return out
}
