// Package httpapi implements the HTTP API: REST endpoints mirroring
// the Node Query Service operations as JSON, plus cache-management
// endpoints. It bypasses the tool gateway and renderer entirely.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/evalgo-org/grafo-query/apperr"
	"github.com/evalgo-org/grafo-query/cache"
	"github.com/evalgo-org/grafo-query/graph"
	"github.com/evalgo-org/grafo-query/store"
	"github.com/evalgo-org/grafo-query/version"
)

// API registers every REST and cache-management route against an Echo
// instance.
type API struct {
	graph          *graph.Service
	store          *store.Client
	cache          *cache.Client
	defaultVersion string
	apiKey         string
	log            *logrus.Logger
}

// New builds the HTTP API surface. cache may be nil. apiKey, when
// non-empty, gates the /cache management routes behind an X-API-Key check.
func New(svc *graph.Service, storeClient *store.Client, cacheClient *cache.Client, defaultVersion, apiKey string, log *logrus.Logger) *API {
	return &API{graph: svc, store: storeClient, cache: cacheClient, defaultVersion: defaultVersion, apiKey: apiKey, log: log}
}

// Register mounts every route under e.
func (a *API) Register(e *echo.Echo) {
	e.GET("/health", a.health)

	g := e.Group("/api/graph")
	g.GET("/versions", a.versions)
	g.GET("/versions/:version/statistics", a.statistics)
	g.POST("/search", a.search)
	g.POST("/callers", a.callers)
	g.POST("/callees", a.callees)
	g.POST("/implementations", a.implementations)
	g.POST("/inheritance", a.inheritance)
	g.POST("/class-members", a.classMembers)
	g.GET("/node/:id", a.node)

	c := e.Group("/cache", APIKeyMiddleware(a.apiKey))
	c.GET("/stats", a.cacheStats)
	c.GET("/keys", a.cacheKeys)
	c.DELETE("/clear", a.cacheClear)
}

func (a *API) version(c echo.Context) string {
	if v := c.QueryParam("version"); v != "" {
		return v
	}
	return a.defaultVersion
}

func (a *API) health(c echo.Context) error {
	status := map[string]string{"status": "ok", "store": "unknown", "cache": "disabled"}
	if a.store != nil {
		if _, err := a.store.ListVersions(c.Request().Context()); err != nil {
			status["store"] = "unavailable"
			status["status"] = "degraded"
		} else {
			status["store"] = "ok"
		}
	}
	if a.cache != nil {
		status["cache"] = "ok"
	}
	build := version.GetBuildInfo()
	return c.JSON(http.StatusOK, map[string]any{
		"status":      status["status"],
		"store":       status["store"],
		"cache":       status["cache"],
		"mainVersion": build.MainVersion,
		"goVersion":   build.GoVersion,
	})
}

func (a *API) versions(c echo.Context) error {
	versions, err := a.store.ListVersions(c.Request().Context())
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"versions": versions, "count": len(versions)})
}

func (a *API) statistics(c echo.Context) error {
	stats, err := a.graph.Statistics(c.Request().Context(), c.Param("version"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

type searchRequest struct {
	Query           string `json:"query"`
	Kind            string `json:"kind"`
	Solution        string `json:"solution"`
	Project         string `json:"project"`
	ContainingClass string `json:"containingClass"`
	Layer           string `json:"layer"`
	Version         string `json:"version"`
	Limit           int64  `json:"limit"`
	ExactFirst      bool   `json:"exactFirst"`
}

func (a *API) search(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return writeErr(c, apperr.Wrap(apperr.InvalidArgument, "invalid request body", err))
	}
	version := req.Version
	if version == "" {
		version = a.version(c)
	}
	result, err := a.graph.Search(c.Request().Context(), version, req.Query, graph.SearchOptions{
		Kind: req.Kind, Solution: req.Solution, Project: req.Project,
		ContainingClass: req.ContainingClass, Layer: req.Layer,
		Limit: req.Limit, ExactFirst: req.ExactFirst,
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type traversalRequest struct {
	TargetID            string `json:"targetId"`
	SourceID            string `json:"sourceId"`
	InterfaceID         string `json:"interfaceId"`
	ClassID             string `json:"classId"`
	Version             string `json:"version"`
	MaxDepth            *int   `json:"maxDepth"`
	IncludeIndirect     bool   `json:"includeIndirect"`
	IncludeViaInterface bool   `json:"includeViaInterface"`
}

func (a *API) reqVersion(c echo.Context, req traversalRequest) string {
	if req.Version != "" {
		return req.Version
	}
	return a.version(c)
}

func (a *API) callers(c echo.Context) error {
	var req traversalRequest
	if err := c.Bind(&req); err != nil || req.TargetID == "" {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "targetId is required"))
	}
	maxDepth := defaultDepth(req.MaxDepth, 3)
	result, err := a.graph.FindCallers(c.Request().Context(), a.reqVersion(c, req), req.TargetID, maxDepth, req.IncludeIndirect)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (a *API) callees(c echo.Context) error {
	var req traversalRequest
	if err := c.Bind(&req); err != nil || req.SourceID == "" {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "sourceId is required"))
	}
	maxDepth := defaultDepth(req.MaxDepth, 3)
	result, err := a.graph.FindCallees(c.Request().Context(), a.reqVersion(c, req), req.SourceID, maxDepth, req.IncludeViaInterface)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (a *API) implementations(c echo.Context) error {
	var req traversalRequest
	if err := c.Bind(&req); err != nil || req.InterfaceID == "" {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "interfaceId is required"))
	}
	result, err := a.graph.FindImplementations(c.Request().Context(), a.reqVersion(c, req), req.InterfaceID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (a *API) inheritance(c echo.Context) error {
	var req traversalRequest
	if err := c.Bind(&req); err != nil || req.ClassID == "" {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "classId is required"))
	}
	maxDepth := defaultDepth(req.MaxDepth, 10)
	result, err := a.graph.FindInheritanceChain(c.Request().Context(), a.reqVersion(c, req), req.ClassID, maxDepth)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type classMembersRequest struct {
	ClassID string   `json:"classId"`
	Version string   `json:"version"`
	Kinds   []string `json:"kinds"`
}

func (a *API) classMembers(c echo.Context) error {
	var req classMembersRequest
	if err := c.Bind(&req); err != nil || req.ClassID == "" {
		return writeErr(c, apperr.New(apperr.InvalidArgument, "classId is required"))
	}
	version := req.Version
	if version == "" {
		version = a.version(c)
	}
	result, err := a.graph.GetClassMembers(c.Request().Context(), version, req.ClassID, req.Kinds)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (a *API) node(c echo.Context) error {
	n, err := a.graph.GetByID(c.Request().Context(), a.version(c), c.Param("id"))
	if err != nil {
		return writeErr(c, err)
	}
	if n == nil {
		return c.JSON(http.StatusNotFound, map[string]any{"found": false, "message": "node not found"})
	}
	return c.JSON(http.StatusOK, n)
}

func (a *API) cacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, a.cache.Stats(c.Request().Context()))
}

func (a *API) cacheKeys(c echo.Context) error {
	pattern := "app:*"
	if v := c.QueryParam("version"); v != "" {
		pattern = "app:*:v" + v + ":*"
	}
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	keys, err := a.cache.Keys(c.Request().Context(), pattern, limit)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"keys": keys, "count": len(keys)})
}

func (a *API) cacheClear(c echo.Context) error {
	pattern := c.QueryParam("prefix")
	if pattern == "" {
		if v := c.QueryParam("version"); v != "" {
			pattern = "app:*:v" + v + ":*"
		} else {
			pattern = "app:*"
		}
	}
	n, err := a.cache.DeletePrefix(c.Request().Context(), pattern)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"deleted": n})
}

// defaultDepth passes an explicit maxDepth through unchanged, including the
// boundary value 0 (which the service treats as "found, but no traversal
// performed"), and only substitutes def when the client omitted the field.
func defaultDepth(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// writeErr is the "single global error mapper": every apperr.Kind maps to
// exactly one HTTP status regardless of which handler raised it.
func writeErr(c echo.Context, err error) error {
	if verr, ok := err.(*store.VersionUnavailableError); ok {
		return c.JSON(http.StatusNotFound, map[string]any{
			"error": string(apperr.VersionUnavailable), "message": verr.Error(), "available": verr.Available,
		})
	}

	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.VersionUnavailable, apperr.NodeNotFound:
		status = http.StatusNotFound
	case apperr.InvalidArgument:
		status = http.StatusBadRequest
	case apperr.StoreUnavailable:
		status = http.StatusServiceUnavailable
	case apperr.Timeout:
		status = http.StatusGatewayTimeout
	case apperr.CacheUnavailable:
		status = http.StatusOK
	}

	message := err.Error()
	if kind == apperr.Internal {
		message = "internal error"
	}
	return c.JSON(status, map[string]string{"error": string(kind), "message": message})
}
