package api

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/service/ratelimit"
	"MarketPulse/pkg/cache"
	xhttp "MarketPulse/pkg/http"
	xlogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/util"
)

// SnapshotService is the query side the handler needs from the aggregator.
type SnapshotService interface {
	Snapshot(ctx context.Context, groups []models.Group) *models.Snapshot
	History() []models.HistoryEntry
}

// SnapshotEchoHandler serves snapshots, history and group metadata.
type SnapshotEchoHandler struct {
	logger   *xlogger.Logger
	svc      SnapshotService
	groups   []models.Group
	limiter  *ratelimit.Limiter
	cache    cache.Service
	cacheTTL time.Duration
}

type HandlerOption func(*SnapshotEchoHandler)

// WithResponseCache serves encoded snapshots from c for ttl. ttl <= 0 disables it.
func WithResponseCache(c cache.Service, ttl time.Duration) HandlerOption {
	return func(h *SnapshotEchoHandler) { h.cache, h.cacheTTL = c, ttl }
}

func WithRateLimiter(l *ratelimit.Limiter) HandlerOption {
	return func(h *SnapshotEchoHandler) { h.limiter = l }
}

func NewSnapshotEchoHandler(logger *xlogger.Logger, svc SnapshotService, groups []models.Group, opts ...HandlerOption) *SnapshotEchoHandler {
	h := &SnapshotEchoHandler{logger: logger, svc: svc, groups: groups}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *SnapshotEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/snapshot", h.Snapshot)
	g.GET("/history", h.History)
	g.GET("/groups", h.Groups)
	e.GET("/healthz", h.Health)
}

// Snapshot runs the pipeline for all (or the requested) groups and returns the bare snapshot object.
func (h *SnapshotEchoHandler) Snapshot(c echo.Context) error {
	if ok, wait := h.limiter.Take(c.RealIP()); !ok {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded", wait))
	}

	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	groups, err := h.selectGroups(req.Groups)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	ctx := c.Request().Context()
	key := cache.GenerateKey("snapshot", groupKey(groups))
	if h.cacheEnabled() {
		if b, err := h.cache.Get(ctx, key); err == nil {
			return xhttp.CachedJSONResponse(c, b, "HIT")
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("snapshot cache get", xlogger.Error(err))
		}
	}

	snap := h.svc.Snapshot(ctx, groups)
	body, err := EncodeSnapshot(snap)
	if err != nil {
		h.logger.Error("encode snapshot", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("encode snapshot").WithError(err))
	}

	state := ""
	if h.cacheEnabled() {
		if err := h.cache.Set(ctx, key, body, h.cacheTTL); err != nil {
			h.logger.Warn("snapshot cache set", xlogger.Error(err))
		}
		state = "MISS"
	}
	return xhttp.CachedJSONResponse(c, body, state)
}

// History returns the most recent entries of the rolling history without running the pipeline.
func (h *SnapshotEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	entries := h.svc.History()
	if len(entries) > req.Limit {
		entries = entries[len(entries)-req.Limit:]
	}
	return xhttp.SuccessResponse(c, toHistoryView(entries))
}

func (h *SnapshotEchoHandler) Groups(c echo.Context) error {
	out := make([]GroupView, len(h.groups))
	for i, g := range h.groups {
		out[i] = GroupView{Name: g.Name, Tickers: g.Tickers}
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *SnapshotEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *SnapshotEchoHandler) cacheEnabled() bool {
	return h.cache != nil && h.cacheTTL > 0
}

// selectGroups keeps configured order; an empty filter selects every group.
func (h *SnapshotEchoHandler) selectGroups(filter string) ([]models.Group, error) {
	names := util.SplitList(filter, ",")
	if len(names) == 0 {
		return h.groups, nil
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[name] = true
	}

	out := make([]models.Group, 0, len(want))
	for _, g := range h.groups {
		if want[g.Name] {
			out = append(out, g)
			delete(want, g.Name)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for name := range want {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, xhttp.UnknownValuesError("groups", unknown)
	}
	return out, nil
}

func groupKey(groups []models.Group) string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return strings.Join(names, ",")
}
