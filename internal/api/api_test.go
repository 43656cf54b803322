package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/export"
	"ubinan/monitoring-app/internal/progress"
	"ubinan/monitoring-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func tokenFor(t *testing.T, id primitive.ObjectID, role domain.Role, ttl time.Duration) string {
	t.Helper()
	claims := &service.Claims{
		UserID: id.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			Issuer:    service.TokenIssuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func do(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	router := gin.New()
	router.GET("/whoami", AuthMiddleware(testSecret), func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": actor.ID.Hex(), "role": actor.Role})
	})
	id := primitive.NewObjectID()

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/whoami", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/whoami", "garbage", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/whoami", tokenFor(t, id, domain.RoleAdmin, -time.Minute), "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/whoami", tokenFor(t, id, domain.Role("root"), time.Hour), "").Code)

	w := do(router, http.MethodGet, "/whoami", tokenFor(t, id, domain.RoleOfficer, time.Hour), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+id.Hex()+`","role":"ppl"}`, w.Body.String())
}

func TestRequireCapability(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware(testSecret))
	router.POST("/allocations", RequireCapability(domain.CapManageAlloc), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	id := primitive.NewObjectID()

	assert.Equal(t, http.StatusForbidden, do(router, http.MethodPost, "/allocations", tokenFor(t, id, domain.RoleViewer, time.Hour), "").Code)
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodPost, "/allocations", tokenFor(t, id, domain.RoleSupervisor, time.Hour), "").Code)
	assert.Equal(t, http.StatusNoContent, do(router, http.MethodPost, "/allocations", tokenFor(t, id, domain.RoleAdmin, time.Hour), "").Code)
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&service.ValidationError{Field: "unitId", Err: service.ErrDuplicateAssignment}, http.StatusConflict},
		{&service.ValidationError{Field: "weight", Err: service.ErrNonPositiveWeight}, http.StatusBadRequest},
		{service.ErrAccessDenied, http.StatusForbidden},
		{service.ErrSampleNotFound, http.StatusNotFound},
		{&service.ValidationError{Field: "unitId", Err: service.ErrUnitNotFound}, http.StatusNotFound},
		{&service.ValidationError{Field: "officerId", Err: service.ErrUserNotFound}, http.StatusNotFound},
		{service.ErrAuthenticationFailed, http.StatusUnauthorized},
		{&service.DataAccessError{Op: "list samples", Err: errors.New("timeout")}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, zap.NewNop(), tc.err, "failed")
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(RequestLogger(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	do(router, http.MethodGet, "/ok", "", "")
	do(router, http.MethodGet, "/bad", "", "")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "/bad", entries[1].ContextMap()["path"])
}

// stubAllocation answers Assign with a duplicate for a fixed unit.
type stubAllocation struct {
	taken primitive.ObjectID
}

func (s stubAllocation) Assign(_ context.Context, _ primitive.ObjectID, req service.AssignRequest) (*domain.Assignment, error) {
	if req.UnitID == s.taken {
		return nil, &service.ValidationError{Field: "unitId", Err: service.ErrDuplicateAssignment}
	}
	return &domain.Assignment{ID: primitive.NewObjectID(), UnitID: req.UnitID, OfficerID: req.OfficerID}, nil
}

func (s stubAllocation) AssignMany(ctx context.Context, by primitive.ObjectID, reqs []service.AssignRequest) (int, error) {
	for i, r := range reqs {
		if _, err := s.Assign(ctx, by, r); err != nil {
			return i, err
		}
	}
	return len(reqs), nil
}

func (s stubAllocation) Unassign(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}

func (s stubAllocation) Status(_ context.Context, f progress.AllocationFilter) (*service.AllocationView, error) {
	rows := []progress.AllocationStatusRow{{Kind: domain.UnitNks, Code: "NKS-1"}, {Kind: domain.UnitSegmen, Code: "SEG-1"}}
	return &service.AllocationView{Rows: progress.Filter(rows, f), Summary: progress.Summarize(rows)}, nil
}

func allocationRouter(taken primitive.ObjectID) *gin.Engine {
	h := NewAllocationHandler(stubAllocation{taken: taken}, zap.NewNop())
	router := gin.New()
	router.Use(AuthMiddleware(testSecret))
	router.GET("/allocations", h.Status)
	router.POST("/allocations", h.Assign)
	router.POST("/allocations/batch", h.AssignMany)
	router.DELETE("/allocations", h.Unassign)
	return router
}

func assignBody(unit primitive.ObjectID) string {
	return `{"unitId":"` + unit.Hex() + `","officerId":"` + primitive.NewObjectID().Hex() + `","supervisorId":"` + primitive.NewObjectID().Hex() + `"}`
}

func TestAllocationHandlers(t *testing.T) {
	taken := primitive.NewObjectID()
	router := allocationRouter(taken)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleAdmin, time.Hour)

	w := do(router, http.MethodPost, "/allocations", token, assignBody(primitive.NewObjectID()))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(router, http.MethodPost, "/allocations", token, assignBody(taken))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodPost, "/allocations", token, `{"unitId":"nope","officerId":"x","supervisorId":"y"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	batch := `{"assignments":[` + assignBody(primitive.NewObjectID()) + `,` + assignBody(taken) + `,` + assignBody(primitive.NewObjectID()) + `]}`
	w = do(router, http.MethodPost, "/allocations/batch", token, batch)
	require.Equal(t, http.StatusConflict, w.Code)
	var partial struct {
		Applied int    `json:"applied"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &partial))
	assert.Equal(t, 1, partial.Applied)

	w = do(router, http.MethodDelete, "/allocations", token, `{"unitId":"`+taken.Hex()+`","officerId":"`+primitive.NewObjectID().Hex()+`"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodGet, "/allocations?type=segmen", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var view service.AllocationView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "SEG-1", view.Rows[0].Code)
	assert.Equal(t, 1, view.Summary.NksUnallocated)
}

// gatedProgress holds the i-th Dashboard call until gates[i] is closed and
// then answers with errs[i].
type gatedProgress struct {
	mu      sync.Mutex
	entered chan int
	gates   []chan struct{}
	errs    []error
	queries []progress.Query
}

func newGatedProgress(calls int) *gatedProgress {
	p := &gatedProgress{entered: make(chan int, calls), errs: make([]error, calls)}
	for i := 0; i < calls; i++ {
		p.gates = append(p.gates, make(chan struct{}))
	}
	return p
}

func (p *gatedProgress) Targets(context.Context, service.Actor) (progress.Targets, error) {
	return progress.Targets{{Padi: 4}}, nil
}

func (p *gatedProgress) Samples(context.Context, service.Actor, int) ([]domain.YieldSample, error) {
	return nil, nil
}

func (p *gatedProgress) Dashboard(_ context.Context, _ service.Actor, q progress.Query) (*service.Dashboard, error) {
	p.mu.Lock()
	i := len(p.queries)
	p.queries = append(p.queries, q)
	p.mu.Unlock()
	if i >= len(p.gates) {
		return &service.Dashboard{Query: q}, nil
	}
	p.entered <- i
	<-p.gates[i]
	if p.errs[i] != nil {
		return nil, p.errs[i]
	}
	return &service.Dashboard{Query: q}, nil
}

type noExport struct{}

func (noExport) BuildReport(context.Context, service.Actor, progress.Query) (*export.Report, error) {
	return nil, service.ErrAccessDenied
}

func (noExport) Write(context.Context, service.Actor, progress.Query, io.Writer) error {
	return service.ErrAccessDenied
}

func (noExport) Publish(context.Context, service.Actor, progress.Query) (*service.PublishedReport, error) {
	return nil, service.ErrAccessDenied
}

func progressRouter(stub service.ProgressService) *gin.Engine {
	h := NewReportHandler(stub, noExport{}, func(time.Time) int { return 2024 }, zap.NewNop())
	router := gin.New()
	router.Use(AuthMiddleware(testSecret))
	router.GET("/progress", h.Progress)
	return router
}

// startTwo issues two overlapping requests and returns their pending responses
// once both are inside Dashboard.
func startTwo(router *gin.Engine, stub *gatedProgress, token, olderURL, newerURL string) (older, newer chan *httptest.ResponseRecorder) {
	older = make(chan *httptest.ResponseRecorder, 1)
	newer = make(chan *httptest.ResponseRecorder, 1)
	go func() { older <- do(router, http.MethodGet, olderURL, token, "") }()
	<-stub.entered
	go func() { newer <- do(router, http.MethodGet, newerURL, token, "") }()
	<-stub.entered
	return older, newer
}

func TestProgressNewerResolvedFirstDropsOlder(t *testing.T) {
	stub := newGatedProgress(2)
	router := progressRouter(stub)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleOfficer, time.Hour)

	older, newer := startTwo(router, stub, token, "/progress?subround=1", "/progress?subround=1")

	close(stub.gates[1])
	assert.Equal(t, http.StatusOK, (<-newer).Code)
	close(stub.gates[0])
	assert.Equal(t, http.StatusConflict, (<-older).Code)

	require.Len(t, stub.queries, 2)
	assert.Equal(t, progress.Query{Year: 2024, Subround: 1}, stub.queries[0])
}

func TestProgressOlderResolvedFirstIsKept(t *testing.T) {
	stub := newGatedProgress(2)
	router := progressRouter(stub)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleOfficer, time.Hour)

	older, newer := startTwo(router, stub, token, "/progress?subround=1", "/progress?subround=1")

	close(stub.gates[0])
	assert.Equal(t, http.StatusOK, (<-older).Code)
	close(stub.gates[1])
	assert.Equal(t, http.StatusOK, (<-newer).Code)
}

func TestProgressFailedNewerDoesNotDropOlder(t *testing.T) {
	stub := newGatedProgress(2)
	stub.errs[1] = &service.DataAccessError{Op: "list samples", Err: errors.New("boom")}
	router := progressRouter(stub)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleOfficer, time.Hour)

	older, newer := startTwo(router, stub, token, "/progress?subround=1", "/progress?subround=1")

	close(stub.gates[1])
	assert.Equal(t, http.StatusInternalServerError, (<-newer).Code)
	close(stub.gates[0])
	assert.Equal(t, http.StatusOK, (<-older).Code)
}

func TestProgressDifferentWindowsDoNotConflict(t *testing.T) {
	stub := newGatedProgress(2)
	router := progressRouter(stub)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleOfficer, time.Hour)

	older, newer := startTwo(router, stub, token, "/progress?subround=1", "/progress?subround=2&year=2023")

	close(stub.gates[1])
	assert.Equal(t, http.StatusOK, (<-newer).Code)
	close(stub.gates[0])
	assert.Equal(t, http.StatusOK, (<-older).Code)

	require.Len(t, stub.queries, 2)
	assert.Equal(t, progress.Query{Year: 2023, Subround: 2}, stub.queries[1])
}

func TestReportDownloadDenied(t *testing.T) {
	h := NewReportHandler(newGatedProgress(0), noExport{}, func(time.Time) int { return 2024 }, zap.NewNop())
	router := gin.New()
	router.Use(AuthMiddleware(testSecret))
	router.GET("/reports/xlsx", h.Download)

	w := do(router, http.MethodGet, "/reports/xlsx", tokenFor(t, primitive.NewObjectID(), domain.RoleAdmin, time.Hour), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
