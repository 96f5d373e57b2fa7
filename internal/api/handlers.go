// Package api exposes the tagger over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
	"github.com/jonesrussell/north-cloud/geotagger/internal/processor"
)

// pingBody is the liveness response kept for existing probes.
const pingBody = "Serving alive..."

var errMissingSequence = errors.New("sequence is required")

// Tagger tags one event.
type Tagger interface {
	Tag(ctx context.Context, event *domain.Event, mode domain.Mode) (domain.TagResult, error)
}

// BatchProcessor tags several events.
type BatchProcessor interface {
	Process(ctx context.Context, events []*domain.Event, mode domain.Mode) []processor.ProcessResult
}

// SameNameIndex lists locations sharing a name.
type SameNameIndex interface {
	Others(name string, excludeID domain.ID) []domain.SameNameLocation
}

// Handler serves the tagging endpoints.
type Handler struct {
	tagger   Tagger
	batch    BatchProcessor
	sameName SameNameIndex
	maxBatch int
	log      logger.Logger
}

// NewHandler creates a Handler. maxBatch caps /tag/batch requests.
func NewHandler(tagger Tagger, batch BatchProcessor, sameName SameNameIndex, maxBatch int, log logger.Logger) *Handler {
	return &Handler{tagger: tagger, batch: batch, sameName: sameName, maxBatch: maxBatch, log: log}
}

// BatchRequest is the body of POST /api/v1/tag/batch.
type BatchRequest struct {
	Events []*domain.Event `binding:"required" json:"events"`
}

// BatchItem is one result of a batch request.
type BatchItem struct {
	Sequence domain.ID        `json:"sequence"`
	Result   domain.TagResult `json:"result"`
	Error    string           `json:"error,omitempty"`
}

// BatchResponse is the body returned by POST /api/v1/tag/batch.
type BatchResponse struct {
	Results []BatchItem `json:"results"`
	Total   int         `json:"total"`
	Failed  int         `json:"failed"`
}

// Predict handles POST /predict. It always answers 200; failures return the
// empty result.
func (h *Handler) Predict(c *gin.Context) {
	start := time.Now()
	result := domain.EmptyResult()
	log := logger.FromContext(c.Request.Context())

	var event domain.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		log.Warn("Invalid predict request", logger.Error(err))
		c.JSON(http.StatusOK, result)
		return
	}
	if event.Sequence == "" {
		log.Warn("Invalid predict request", logger.Error(errMissingSequence))
		c.JSON(http.StatusOK, result)
		return
	}

	tagged, err := h.tagger.Tag(c.Request.Context(), &event, domain.ModePredict)
	if err != nil {
		log.Error("Predict failed",
			logger.String("sequence", string(event.Sequence)),
			logger.Error(err),
		)
	} else {
		result = tagged
	}

	log.Info("Predict complete",
		logger.String("sequence", string(event.Sequence)),
		logger.Int("locations", len(result.Locations)),
		logger.Duration("duration", time.Since(start)),
	)
	c.JSON(http.StatusOK, result)
}

// Ping handles GET /ping.
func (h *Handler) Ping(c *gin.Context) {
	c.String(http.StatusOK, pingBody)
}

// Tag handles POST /api/v1/tag.
func (h *Handler) Tag(c *gin.Context) {
	h.tagOne(c, domain.ModePredict)
}

// Featurize handles POST /api/v1/featurize. The event label is compared
// against each candidate's combo name.
func (h *Handler) Featurize(c *gin.Context) {
	h.tagOne(c, domain.ModeTrain)
}

func (h *Handler) tagOne(c *gin.Context, mode domain.Mode) {
	log := logger.FromContext(c.Request.Context())

	var event domain.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		log.Warn("Invalid tag request", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if event.Sequence == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingSequence.Error()})
		return
	}

	result, err := h.tagger.Tag(c.Request.Context(), &event, mode)
	if err != nil {
		log.Error("Tagging failed",
			logger.String("sequence", string(event.Sequence)),
			logger.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// TagBatch handles POST /api/v1/tag/batch. Failed events carry the empty
// result and an error message.
func (h *Handler) TagBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid batch request", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.maxBatch > 0 && len(req.Events) > h.maxBatch {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("batch exceeds %d events", h.maxBatch)})
		return
	}
	for i, ev := range req.Events {
		if ev == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("events[%d] is null", i)})
			return
		}
	}

	processed := h.batch.Process(c.Request.Context(), req.Events, domain.ModePredict)

	resp := BatchResponse{Results: make([]BatchItem, 0, len(processed)), Total: len(processed)}
	for _, p := range processed {
		item := BatchItem{Sequence: p.Event.Sequence, Result: p.Result}
		if p.Error != nil {
			item.Error = p.Error.Error()
			resp.Failed++
		}
		resp.Results = append(resp.Results, item)
	}
	c.JSON(http.StatusOK, resp)
}

// SameName handles GET /api/v1/reference/same-name/:name.
func (h *Handler) SameName(c *gin.Context) {
	name := c.Param("name")
	locations := h.sameName.Others(name, "")
	if locations == nil {
		locations = []domain.SameNameLocation{}
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "locations": locations, "total": len(locations)})
}
