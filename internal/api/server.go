// Package api serves a read-only HTTP view of the marathon: liveness,
// dashboard counts and per-user progress.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/models"
)

// Reader is the part of the lifecycle engine the API reads from.
type Reader interface {
	Dashboard(ctx context.Context) (models.Dashboard, error)
	User(ctx context.Context, id int64) (models.User, error)
	Eligible(ctx context.Context, userID int64) (bool, models.Progress, error)
	PendingTasks(ctx context.Context, userID int64) ([]models.Task, error)
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(r Reader, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	h := handlers{reader: r, logger: logger}
	router.GET("/health", h.health)
	router.GET("/stats", h.stats)
	router.GET("/users/:id/progress", h.progress)
	return router
}

// Serve runs the API on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

type handlers struct {
	reader Reader
	logger *slog.Logger
}

func (h handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h handlers) stats(c *gin.Context) {
	d, err := h.reader.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	byStatus := make(map[string]int, len(d.ByStatus))
	for _, s := range []models.SubmissionStatus{
		models.SubmissionPending, models.SubmissionApproved,
		models.SubmissionRejected, models.SubmissionNeedsRedo,
	} {
		byStatus[s.String()] = d.ByStatus[s]
	}
	c.JSON(http.StatusOK, gin.H{
		"users":          d.Users,
		"approved_users": d.ApprovedUsers,
		"pending_users":  d.PendingUsers,
		"tasks":          d.Tasks,
		"submissions":    d.Submissions,
		"by_status":      byStatus,
	})
}

func (h handlers) progress(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	ctx := c.Request.Context()
	user, err := h.reader.User(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	eligible, p, err := h.reader.Eligible(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	pending, err := h.reader.PendingTasks(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	days := make([]int, 0, len(pending))
	for _, t := range pending {
		days = append(days, t.DayNumber)
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":      user.ID,
		"username":     user.Username,
		"approved":     user.Approved,
		"current_task": user.CurrentTask,
		"finished":     user.Finished,
		"completed":    p.Completed,
		"total":        p.Total,
		"percentage":   p.Percentage,
		"eligible":     eligible,
		"pending_days": days,
	})
}

func (h handlers) fail(c *gin.Context, err error) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.logger.Error("API request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
