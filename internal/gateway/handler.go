package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/AliZeynalov/ai-router-facade/internal/journal"
	"github.com/AliZeynalov/ai-router-facade/internal/models"
	"github.com/AliZeynalov/ai-router-facade/internal/router"
	"github.com/AliZeynalov/ai-router-facade/internal/validator"
)

// Handler is the request façade (C5): the public HTTP surface spec.md
// §6 describes, sitting on top of the router kernel.
type Handler struct {
	router  *router.Router
	history *journal.Store
}

// NewHandler constructs a Handler. history is a separate Journal Store
// from the router's own internal journal — see DESIGN.md's
// open-question decision keeping the façade's user-visible history
// distinct from the router's attempt journal.
func NewHandler(r *router.Router, history *journal.Store) *Handler {
	return &Handler{router: r, history: history}
}

// generateRequestBody mirrors the wire shape in spec.md §6's table.
// Temperature is a pointer so an explicit "temperature":0 in the body
// (a valid value per spec.md §3's [0, 2] range) is distinguishable from
// the field being absent — a plain float64 would make both unmarshal to
// the same zero value.
type generateRequestBody struct {
	Prompt        string   `json:"prompt" binding:"required"`
	MaxTokens     int      `json:"maxTokens,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	Model         string   `json:"model,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

// Generate handles POST /api/ai/generate.
func (h *Handler) Generate(c *gin.Context) {
	requestID := c.GetString("request_id")

	var body generateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"type":    "invalid_request",
				"message": "failed to parse request body: " + err.Error(),
			},
		})
		return
	}

	temperature := models.DefaultTemperature
	if body.Temperature != nil {
		temperature = *body.Temperature
	}

	req := models.GenerationRequest{
		Prompt:        body.Prompt,
		MaxTokens:     body.MaxTokens,
		Temperature:   temperature,
		Model:         body.Model,
		StopSequences: body.StopSequences,
	}.WithDefaults()

	if err := validator.ValidateRequest(&req); err != nil {
		log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"event":      "validation_failed",
		}).Warn("request validation failed")

		if verrs, ok := err.(*validator.ValidationErrors); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"type":    "validation_error",
					"message": "request validation failed",
					"details": verrs.Errors,
				},
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"type": "validation_error", "message": err.Error()},
		})
		return
	}

	result := h.router.Route(c.Request.Context(), req.Prompt, req.Options())
	h.recordHistory(req, result)

	if result.Ok {
		log.WithFields(log.Fields{
			"request_id": requestID,
			"provider":   result.Provider,
			"event":      "generate_success",
		}).Info("request successful")

		// Leaves the routing outcome in the gin context so
		// LoggingMiddleware's completion line carries it too.
		c.Set("provider", result.Provider)
		c.Set("cost", result.Cost.String())

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"content":  result.Content,
			"provider": result.Provider,
			"cost":     result.Cost,
			"duration": result.Duration.Milliseconds(),
		})
		return
	}

	log.WithFields(log.Fields{
		"request_id":      requestID,
		"failedProviders": result.FailedProviders,
		"event":           "generate_failure",
	}).Warn("all providers exhausted")

	c.Set("failed_providers", result.FailedProviders)
	c.Set("cost", result.TotalAttemptedCost.String())

	c.JSON(http.StatusServiceUnavailable, gin.H{
		"success":            false,
		"error":              result.Error,
		"failedProviders":    result.FailedProviders,
		"totalAttemptedCost": result.TotalAttemptedCost,
		"duration":           result.Duration.Milliseconds(),
	})
}

// recordHistory appends the call's outcome to the façade's external
// history document. Per spec.md §4.3, journal-write failures are
// non-fatal.
func (h *Handler) recordHistory(req models.GenerationRequest, result models.TerminalResponse) {
	if h.history == nil {
		return
	}

	entry := models.JournalEntry{
		Timestamp:   time.Now().UTC(),
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Model:       req.Model,
		Success:     result.Ok,
		DurationMs:  result.Duration.Milliseconds(),
	}
	if result.Ok {
		entry.Provider = result.Provider
		entry.Content = result.Content
		entry.Cost = result.Cost
	} else {
		entry.Error = result.Error
		entry.Cost = result.TotalAttemptedCost
	}

	var doc models.JournalDocument
	if _, err := journal.Load(h.history, &doc); err != nil {
		log.WithError(err).Warn("history load failed; starting from empty document")
	}
	doc.Responses = append(doc.Responses, entry)
	doc.LastUpdated = time.Now().UTC()
	doc.Recompute()

	if err := journal.Write(h.history, doc); err != nil {
		log.WithError(err).Warn("history write failed; continuing")
	}
}

// Status handles GET /api/ai/status.
func (h *Handler) Status(c *gin.Context) {
	statuses := h.router.ProviderStatus(c.Request.Context())
	c.JSON(http.StatusOK, statuses)
}

// Spend handles GET /api/ai/spend.
func (h *Handler) Spend(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.TodaySpend())
}

// WeeklyUsage handles GET /api/ai/usage/weekly — additive per
// SPEC_FULL.md §5, not part of spec.md's table.
func (h *Handler) WeeklyUsage(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.Ledger().WeeklyReport())
}

// HealthCheck handles POST /api/ai/health.
func (h *Handler) HealthCheck(c *gin.Context) {
	statuses := h.router.ProviderStatus(c.Request.Context())
	healthy := 0
	for _, s := range statuses {
		if s.IsHealthy {
			healthy++
		}
	}

	status := "Unhealthy"
	if healthy == len(statuses) && len(statuses) > 0 {
		status = "Healthy"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           status,
		"healthyProviders": healthy,
		"totalProviders":   len(statuses),
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}

// History handles GET /api/ai/history.
func (h *Handler) History(c *gin.Context) {
	var doc models.JournalDocument
	if _, err := journal.Load(h.history, &doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Rollover handles POST /api/ai/rollover.
func (h *Handler) Rollover(c *gin.Context) {
	if err := h.history.ForceRollover(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rollover complete"})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
