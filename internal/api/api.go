// Package api exposes the analysis pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/katachat/insight-api/internal/analyze"
	"github.com/katachat/insight-api/internal/audit"
	"github.com/katachat/insight-api/internal/lang"
	"github.com/katachat/insight-api/internal/prompt"
)

// HealthChecker reports collaborator connectivity for /readyz.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server holds the handler dependencies. Audit and DB may be nil.
type Server struct {
	Svc   *analyze.Service
	Audit audit.Store
	DB    HealthChecker
	Log   *zap.Logger

	// Now is swappable for deterministic age computation in tests.
	Now func() time.Time
}

// FlexInt accepts both JSON numbers and numeric strings; the intake
// frontends are inconsistent about how they send date fields.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		// Unparseable dates degrade to zero, they never fail a request.
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

type analyzeRequest struct {
	// A present but unparseable year yields age 0; only an absent or
	// null year counts as a missing field.
	DOBYear   *FlexInt `json:"dob_year"`
	DOBMonth  FlexInt  `json:"dob_month"`
	DOBDay    FlexInt  `json:"dob_day"`
	Gender    string   `json:"gender"`
	Country   string   `json:"country"`
	Condition string   `json:"condition"`
	Details   string   `json:"details"`
	Lang      string   `json:"lang"`
}

const langKey = "lang"

// Router assembles the gin engine with the middleware stack.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.CustomRecovery(s.recover),
		requestID(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", s.handleReadyz)
	router.POST("/health_analyze", s.handleAnalyze)
	router.GET("/api/audit/latest", s.handleAuditLatest)

	return router
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. No JSON data received."})
		return
	}

	l := lang.Normalize(req.Lang)
	c.Set(langKey, l)
	labels := lang.For(l)

	var missing []string
	if req.DOBYear == nil {
		missing = append(missing, "dob_year")
	}
	for _, f := range []struct{ name, value string }{
		{"gender", req.Gender},
		{"country", req.Country},
		{"condition", req.Condition},
		{"details", req.Details},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(labels.ErrMissing, strings.Join(missing, ", "))})
		return
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	res := s.Svc.Analyze(c.Request.Context(), analyze.Request{
		Lang: l,
		Profile: prompt.Profile{
			Age:     prompt.ComputeAge(int(*req.DOBYear), int(req.DOBMonth), int(req.DOBDay), now),
			Gender:  req.Gender,
			Country: req.Country,
			Concern: req.Condition,
			Notes:   req.Details,
		},
	})

	c.JSON(http.StatusOK, res)
}

func (s *Server) handleReadyz(c *gin.Context) {
	if s.DB == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.DB.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"db":     fmt.Sprintf("unhealthy: %v", err),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
}

func (s *Server) handleAuditLatest(c *gin.Context) {
	if s.Audit == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []audit.Summary{}})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	entries, err := s.Audit.Latest(c.Request.Context(), limit)
	if err != nil {
		s.Log.Error("audit listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": lang.For(lang.EN).ErrInternal})
		return
	}
	if entries == nil {
		entries = []audit.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// recover turns any panic into the generic localized 500 response; the
// stack trace stays in the logs.
func (s *Server) recover(c *gin.Context, err any) {
	s.Log.Error("panic in request handler", zap.Any("panic", err), zap.Stack("stack"))

	l := lang.EN
	if v, ok := c.Get(langKey); ok {
		if stored, ok := v.(lang.Lang); ok {
			l = stored
		}
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": lang.For(l).ErrInternal})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

var _ json.Unmarshaler = (*FlexInt)(nil)
