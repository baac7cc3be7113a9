// Package http exposes the session manager's REST surface to the
// extension popup and any other local client.
package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SamisDone/tabsaver/internal/domain/session"
	"github.com/SamisDone/tabsaver/internal/domain/settings"
	"github.com/SamisDone/tabsaver/internal/logging"
	"github.com/SamisDone/tabsaver/internal/shared/types"
	"github.com/SamisDone/tabsaver/internal/storage"
)

// maxImportBytes bounds how much of an import upload is read.
const maxImportBytes = 32 << 20

// Handlers wires the domain layer to gin routes.
type Handlers struct {
	service  *session.Service
	store    *session.Store
	undo     *session.UndoBuffer
	settings *settings.Manager
	kv       storage.KV
	maxBytes int64
	logger   *logging.Logger
	signal   session.Signaler
}

// NewHandlers creates the route handlers.
func NewHandlers(
	service *session.Service,
	store *session.Store,
	undo *session.UndoBuffer,
	settingsMgr *settings.Manager,
	kv storage.KV,
	maxBytes int64,
	logger *logging.Logger,
) *Handlers {
	return &Handlers{
		service:  service,
		store:    store,
		undo:     undo,
		settings: settingsMgr,
		kv:       kv,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// WithSignaler attaches an event sink for toast notifications.
func (h *Handlers) WithSignaler(sig session.Signaler) *Handlers {
	h.signal = sig
	return h
}

// RegisterRoutes attaches all routes to the router.
func (h *Handlers) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)

	sessions := r.Group("/sessions")
	{
		sessions.GET("", h.ListSessions)
		sessions.POST("/save", h.SaveSession)
		sessions.POST("/save-tab", h.SaveActiveTab)
		sessions.POST("/undo", h.Undo)
		sessions.POST("/reorder", h.Reorder)
		sessions.GET("/export", h.Export)
		sessions.POST("/import", h.Import)
		sessions.GET("/:timestamp", h.GetSession)
		sessions.DELETE("/:timestamp", h.DeleteSession)
		sessions.POST("/:timestamp/restore", h.RestoreSession)
		sessions.POST("/:timestamp/rename", h.RenameSession)
		sessions.POST("/:timestamp/tags", h.AddTag)
		sessions.DELETE("/:timestamp/tags/:tag", h.RemoveTag)
	}

	r.GET("/duplicate-check", h.DuplicateCheck)
	r.POST("/tabs/cleanup", h.CleanupTabs)
	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", h.UpdateSettings)
	r.GET("/storage/usage", h.StorageUsage)
}

// respondError maps domain errors onto HTTP statuses and mirrors the
// failure to connected clients as a toast naming the action, the same
// way the success paths announce theirs.
func (h *Handlers) respondError(c *gin.Context, action string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrFormat),
		errors.Is(err, session.ErrUnknownTag),
		errors.Is(err, session.ErrNoTabs):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrFilteredView),
		errors.Is(err, session.ErrNothingToUndo),
		errors.Is(err, session.ErrDuplicateTimestamp):
		status = http.StatusConflict
	case errors.Is(err, session.ErrPersistence):
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	h.toast(types.ToastError, "Could not %s: %v", action, err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handlers) toast(kind types.ToastKind, format string, args ...interface{}) {
	if h.signal == nil {
		return
	}
	h.signal.Signal(types.Event{
		Type: types.EventToast,
		Toast: &types.Toast{
			Kind:    kind,
			Message: fmt.Sprintf(format, args...),
		},
	})
}

func parseTimestamp(c *gin.Context) (int64, bool) {
	ts, err := strconv.ParseInt(c.Param("timestamp"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timestamp must be an integer"})
		return 0, false
	}
	return ts, true
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": h.store.Len(),
	})
}

// ListSessions returns session summaries, optionally filtered by a
// query and ordered newest first.
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.store.Search(c.Query("q"))
	if c.Query("order") == "newest" {
		for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
			sessions[i], sessions[j] = sessions[j], sessions[i]
		}
	}

	summaries := make([]types.SessionSummary, len(sessions))
	for i, s := range sessions {
		summaries[i] = s.ToSummary()
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": summaries,
		"count":    len(summaries),
		"filtered": c.Query("q") != "",
	})
}

// GetSession returns one full session including tabs and screenshot.
func (h *Handlers) GetSession(c *gin.Context) {
	ts, ok := parseTimestamp(c)
	if !ok {
		return
	}
	sess, err := h.store.Get(ts)
	if err != nil {
		h.respondError(c, "load session", err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// SaveSession captures the current window.
func (h *Handlers) SaveSession(c *gin.Context) {
	var req types.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.service.SaveCurrent(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "save session", err)
		return
	}
	h.toast(types.ToastSuccess, "Saved %q with %d tabs", sess.Name, sess.TabCount)
	c.JSON(http.StatusCreated, sess)
}

// SaveActiveTab captures only the focused tab.
func (h *Handlers) SaveActiveTab(c *gin.Context) {
	var req types.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.service.SaveActiveTab(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "save tab", err)
		return
	}
	h.toast(types.ToastSuccess, "Saved tab %q", sess.Name)
	c.JSON(http.StatusCreated, sess)
}

// RestoreSession opens a session's tabs, all of them or a selection.
func (h *Handlers) RestoreSession(c *gin.Context) {
	ts, ok := parseTimestamp(c)
	if !ok {
		return
	}
	var req types.RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var opened int
	var err error
	if len(req.Indices) > 0 {
		opened, err = h.service.OpenSelected(c.Request.Context(), ts, req.Indices)
	} else {
		opened, err = h.service.OpenAll(c.Request.Context(), ts)
	}
	if err != nil {
		h.respondError(c, "restore session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"opened": opened})
}

// RenameSession changes a session's display name.
func (h *Handlers) RenameSession(c *gin.Context) {
	ts, ok := parseTimestamp(c)
	if !ok {
		return
	}
	var req types.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.store.Rename(c.Request.Context(), ts, req.Name)
	if err != nil {
		h.respondError(c, "rename session", err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// AddTag attaches a vocabulary tag to a session.
func (h *Handlers) AddTag(c *gin.Context) {
	ts, ok := parseTimestamp(c)
	if !ok {
		return
	}
	var req types.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.store.AddTag(c.Request.Context(), ts, req.Tag)
	if err != nil {
		h.respondError(c, "tag session", err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// RemoveTag detaches a tag from a session.
func (h *Handlers) RemoveTag(c *gin.Context) {
	ts, ok := parseTimestamp(c)
	if !ok {
		return
	}

	sess, err := h.store.RemoveTag(c.Request.Context(), ts, c.Param("tag"))
	if err != nil {
		h.respondError(c, "untag session", err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// DeleteSession removes a session, keeping it undoable for a short
// window.
func (h *Handlers) DeleteSession(c *gin.Context) {
	ts, ok := parseTimestamp(c)
	if !ok {
		return
	}

	removed, err := h.undo.Delete(c.Request.Context(), ts)
	if err != nil {
		h.respondError(c, "delete session", err)
		return
	}
	h.toast(types.ToastInfo, "Deleted %q", removed.Session.Name)
	c.JSON(http.StatusOK, gin.H{
		"deleted":  removed.Session.ToSummary(),
		"undoable": true,
	})
}

// Undo reverses the most recent deletion if its window is still open.
func (h *Handlers) Undo(c *gin.Context) {
	sess, err := h.undo.Undo(c.Request.Context())
	if err != nil {
		h.respondError(c, "undo deletion", err)
		return
	}
	h.toast(types.ToastSuccess, "Restored %q", sess.Name)
	c.JSON(http.StatusOK, sess)
}

// Reorder moves a session to a new position in the full sequence.
func (h *Handlers) Reorder(c *gin.Context) {
	var req types.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.Reorder(c.Request.Context(), req.Dragged, req.Target, req.FullView); err != nil {
		h.respondError(c, "reorder sessions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reordered": true})
}

// Export streams the full session collection as a downloadable
// document.
func (h *Handlers) Export(c *gin.Context) {
	data, err := h.store.Export()
	if err != nil {
		h.respondError(c, "export sessions", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="tab-sessions.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// Import merges an uploaded document into the store.
func (h *Handlers) Import(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	accepted, err := h.store.Import(c.Request.Context(), data)
	if err != nil {
		h.respondError(c, "import sessions", err)
		return
	}
	h.toast(types.ToastSuccess, "Imported %d sessions", accepted)
	c.JSON(http.StatusOK, gin.H{
		"accepted": accepted,
		"total":    h.store.Len(),
	})
}

// DuplicateCheck scores the current window against stored sessions.
func (h *Handlers) DuplicateCheck(c *gin.Context) {
	match, found, err := h.service.DuplicateCheck(c.Request.Context())
	if err != nil {
		h.respondError(c, "check duplicates", err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"duplicate": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"duplicate": true,
		"session":   match.Session.ToSummary(),
		"percent":   int(match.Score * 100),
	})
}

// CleanupTabs closes duplicate tabs across all windows.
func (h *Handlers) CleanupTabs(c *gin.Context) {
	closed, err := h.service.CleanupDuplicates(c.Request.Context())
	if err != nil {
		h.respondError(c, "close duplicate tabs", err)
		return
	}
	if closed > 0 {
		h.toast(types.ToastSuccess, "Closed %d duplicate tabs", closed)
	}
	c.JSON(http.StatusOK, gin.H{"closed": closed})
}

// GetSettings returns the current settings.
func (h *Handlers) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Get())
}

// UpdateSettings validates and applies new settings.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var req types.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.settings.Update(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.settings.Get())
}

// StorageUsage reports how close the persisted data is to the quota,
// with escalating warnings at 70, 80, and 90 percent.
func (h *Handlers) StorageUsage(c *gin.Context) {
	used, err := h.kv.BytesInUse(c.Request.Context())
	if err != nil {
		h.respondError(c, "measure storage usage", fmt.Errorf("%w: %v", session.ErrPersistence, err))
		return
	}

	percent := 0.0
	if h.maxBytes > 0 {
		percent = float64(used) / float64(h.maxBytes) * 100
	}

	warning := ""
	switch {
	case percent >= 90:
		warning = "critical"
	case percent >= 80:
		warning = "high"
	case percent >= 70:
		warning = "elevated"
	}

	c.JSON(http.StatusOK, gin.H{
		"bytesInUse": used,
		"maxBytes":   h.maxBytes,
		"percent":    percent,
		"warning":    warning,
	})
}
