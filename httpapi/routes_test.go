package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalgo-org/grafo-query/apperr"
	"github.com/evalgo-org/grafo-query/store"
)

func newTestEcho(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHealthWithNoStoreOrCacheReportsUnknownAndDisabled(t *testing.T) {
	a := New(nil, nil, nil, "7.10.2", "", nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	c, rec := newTestEcho(req)

	require.NoError(t, a.health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"store":"unknown"`)
	assert.Contains(t, body, `"cache":"disabled"`)
}

func TestCallersMissingTargetIDIsBadRequestWithoutTouchingGraph(t *testing.T) {
	a := New(nil, nil, nil, "7.10.2", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/graph/callers", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newTestEcho(req)

	require.NoError(t, a.callers(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "targetId is required")
}

func TestCalleesMissingSourceIDIsBadRequest(t *testing.T) {
	a := New(nil, nil, nil, "7.10.2", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/graph/callees", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newTestEcho(req)

	require.NoError(t, a.callees(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "sourceId is required")
}

func TestImplementationsMissingInterfaceIDIsBadRequest(t *testing.T) {
	a := New(nil, nil, nil, "7.10.2", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/graph/implementations", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newTestEcho(req)

	require.NoError(t, a.implementations(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInheritanceMissingClassIDIsBadRequest(t *testing.T) {
	a := New(nil, nil, nil, "7.10.2", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/graph/inheritance", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newTestEcho(req)

	require.NoError(t, a.inheritance(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVersionPrefersQueryParamOverDefault(t *testing.T) {
	a := New(nil, nil, nil, "7.10.2", "", nil)
	req := httptest.NewRequest(http.MethodGet, "/api/graph/node/x?version=9.0.0", nil)
	c, _ := newTestEcho(req)
	assert.Equal(t, "9.0.0", a.version(c))
}

func TestVersionFallsBackToDefault(t *testing.T) {
	a := New(nil, nil, nil, "7.10.2", "", nil)
	req := httptest.NewRequest(http.MethodGet, "/api/graph/node/x", nil)
	c, _ := newTestEcho(req)
	assert.Equal(t, "7.10.2", a.version(c))
}

func TestDefaultDepthAppliesDefaultWhenOmitted(t *testing.T) {
	assert.Equal(t, 3, defaultDepth(nil, 3))
}

func TestDefaultDepthPreservesExplicitZero(t *testing.T) {
	zero := 0
	assert.Equal(t, 0, defaultDepth(&zero, 3))
}

func TestDefaultDepthPassesThroughExplicitValue(t *testing.T) {
	five := 5
	assert.Equal(t, 5, defaultDepth(&five, 3))
}

func TestWriteErrMapsVersionUnavailableToNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newTestEcho(req)

	err := writeErr(c, &store.VersionUnavailableError{Version: "9.0.0", Available: []string{"7.10.2"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "VersionUnavailable")
	assert.Contains(t, rec.Body.String(), "7.10.2")
}

func TestWriteErrMapsInvalidArgumentToBadRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newTestEcho(req)

	err := writeErr(c, apperr.New(apperr.InvalidArgument, "bad input"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteErrMapsCacheUnavailableToOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newTestEcho(req)

	err := writeErr(c, apperr.New(apperr.CacheUnavailable, "redis down"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWriteErrHidesInternalDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newTestEcho(req)

	err := writeErr(c, apperr.Wrap(apperr.Internal, "decode failed", assert.AnError))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal error")
	assert.NotContains(t, rec.Body.String(), "decode failed")
}

func TestWriteErrMapsPlainErrorToInternal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newTestEcho(req)

	err := writeErr(c, assert.AnError)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRegisterMountsExpectedRoutes(t *testing.T) {
	a := New(nil, nil, nil, "7.10.2", "", nil)
	e := echo.New()
	a.Register(e)

	paths := map[string]bool{}
	for _, r := range e.Routes() {
		paths[r.Method+" "+r.Path] = true
	}
	assert.True(t, paths["GET /health"])
	assert.True(t, paths["POST /api/graph/search"])
	assert.True(t, paths["GET /api/graph/node/:id"])
	assert.True(t, paths["DELETE /cache/clear"])
}
