package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/domain/checklist"
	"vigilance-service/internal/domain/condominium"
	"vigilance-service/internal/domain/motorcycle"
	"vigilance-service/internal/domain/vigilante"
	"vigilance-service/internal/middleware"
	"vigilance-service/internal/pkg/datauri"
	xerrors "vigilance-service/internal/pkg/errors"
	"vigilance-service/internal/pkg/response"
	"vigilance-service/internal/pkg/retry"
	"vigilance-service/internal/report"
	"vigilance-service/internal/repository/memory"
	redisrepo "vigilance-service/internal/repository/redis"
	checklistsvc "vigilance-service/internal/service/checklist"
	condosvc "vigilance-service/internal/service/condominium"
	service "vigilance-service/internal/service/export"
)

// archive keeps downloads in memory in place of Redis.
type archive struct {
	mu    sync.Mutex
	files map[string]*redisrepo.Download
}

func (a *archive) Put(_ context.Context, d *redisrepo.Download) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	token := ulid.Make().String()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	a.files[token] = d
	return token, nil
}

func (a *archive) Get(_ context.Context, token string) (*redisrepo.Download, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, ok := a.files[token]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return d, nil
}

type tokens map[string]*auth.Principal

func (t tokens) Authenticate(_ context.Context, token string) (*auth.Principal, error) {
	if p, ok := t[token]; ok {
		return p, nil
	}
	return nil, xerrors.ErrUnauthorized
}

type testEnv struct {
	router  *gin.Engine
	store   *memory.Store
	archive *archive
	condoID int64
}

func signature(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return datauri.Encode(datauri.MimePNG, buf.Bytes())
}

func newTestEnv(t *testing.T, records int) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := memory.NewStore()
	condos := condosvc.NewCondominiumService(store.Condominiums, store.Vigilantes, zap.NewNop())
	gen, err := report.NewGenerator(
		report.NewHTTPLoader(time.Second, retry.Policy{Attempts: 1}),
		zap.NewNop(),
		report.Options{Location: time.UTC},
	)
	require.NoError(t, err)
	checklists := checklistsvc.NewChecklistService(store.Checklists, memory.NewDraftStore(), condos,
		store.Vigilantes, store.Motorcycles, gen, nil, zap.NewNop())
	exports := service.NewExportService(store.Checklists, checklists, condos, gen, nil, 0, zap.NewNop())

	owner := &auth.User{Email: "admin@example.com", Role: auth.RoleAdmin, Status: auth.StatusActive}
	require.NoError(t, store.Users.Create(ctx, owner))
	admin := &auth.Principal{UserID: owner.ID, Role: auth.RoleAdmin, Admin: true}

	condo, err := condos.Create(ctx, admin, &condominium.CreateRequest{Name: "Residencial Aurora"})
	require.NoError(t, err)

	v := &vigilante.Vigilante{CondominiumID: condo.ID, FullName: "Jane Doe", Registration: "1", IsActive: true}
	require.NoError(t, store.Vigilantes.Create(ctx, v))
	m := &motorcycle.Motorcycle{CondominiumID: condo.ID, Plate: "ABC-1234", Make: "Honda", Model: "CG"}
	require.NoError(t, store.Motorcycles.Create(ctx, m))

	base := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	for i := 0; i < records; i++ {
		store.Checklists.Put(checklist.Checklist{
			CondominiumID:   condo.ID,
			VigilanteID:     v.ID,
			VigilanteName:   v.FullName,
			MotorcycleID:    m.ID,
			MotorcyclePlate: m.Plate,
			Type:            checklist.TypeStart,
			Signature:       signature(t),
			Status:          checklist.RecordCompleted,
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
		})
	}

	files := &archive{files: make(map[string]*redisrepo.Download)}
	h := NewExportHandler(exports, files, "https://vigilance.example.com", zap.NewNop())
	authMW := middleware.NewAuthMiddleware(tokens{
		"admin":    admin,
		"stranger": {UserID: owner.ID + 100, Role: auth.RoleAdmin, Admin: true},
	})

	r := gin.New()
	g := r.Group("/api/v1/condominiums/:id", authMW.Auth())
	g.GET("/checklists/export", h.Export)
	g.GET("/checklists/delete-preview", h.DeletePreview)
	g.DELETE("/checklists", h.DeleteAll)
	g.POST("/checklists/export-and-delete", h.ExportAndDelete)
	r.GET("/api/v1/downloads/:token", h.Download)

	return &testEnv{router: r, store: store, archive: files, condoID: condo.ID}
}

func (e *testEnv) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) path(suffix string) string {
	return "/api/v1/condominiums/" + strconv.FormatInt(e.condoID, 10) + suffix
}

func (e *testEnv) count(t *testing.T) int {
	list, err := e.store.Checklists.ListByCondominium(context.Background(), e.condoID)
	require.NoError(t, err)
	return len(list)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) (response.Response, map[string]interface{}) {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data, _ := body.Data.(map[string]interface{})
	return body, data
}

func TestExport_StreamsPDF(t *testing.T) {
	e := newTestEnv(t, 2)

	w := e.do(http.MethodGet, e.path("/checklists/export"), "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "checklists-Residencial-Aurora.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	assert.Equal(t, 2, e.count(t))
}

func TestExport_EmptySetIsNotFound(t *testing.T) {
	e := newTestEnv(t, 0)

	w := e.do(http.MethodGet, e.path("/checklists/export"), "admin")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExport_OtherAdminForbidden(t *testing.T) {
	e := newTestEnv(t, 1)

	w := e.do(http.MethodGet, e.path("/checklists/export"), "stranger")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteAll_RequiresConfirmation(t *testing.T) {
	e := newTestEnv(t, 2)

	w := e.do(http.MethodDelete, e.path("/checklists"), "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 2, e.count(t))
}

func TestDeleteAll_PreviewTokenRoundTrip(t *testing.T) {
	e := newTestEnv(t, 2)

	w := e.do(http.MethodGet, e.path("/checklists/delete-preview"), "admin")
	require.Equal(t, http.StatusOK, w.Code)
	_, preview := decode(t, w)
	assert.EqualValues(t, 2, preview["count"])
	token, _ := preview["token"].(string)
	require.NotEmpty(t, token)

	w = e.do(http.MethodDelete, e.path("/checklists?confirm="+token), "admin")
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode(t, w)
	assert.EqualValues(t, 2, data["deleted"])
	assert.Equal(t, 0, e.count(t))
}

func TestDeleteAll_StaleTokenConflicts(t *testing.T) {
	e := newTestEnv(t, 2)

	w := e.do(http.MethodGet, e.path("/checklists/delete-preview"), "admin")
	require.Equal(t, http.StatusOK, w.Code)
	_, preview := decode(t, w)
	token := preview["token"].(string)

	e.store.Checklists.Put(checklist.Checklist{
		CondominiumID: e.condoID,
		Type:          checklist.TypeEnd,
		Status:        checklist.RecordCompleted,
		CreatedAt:     time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
	})

	w = e.do(http.MethodDelete, e.path("/checklists?confirm="+token), "admin")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 3, e.count(t))
}

func TestExportAndDelete_ArchivesThenDeletes(t *testing.T) {
	e := newTestEnv(t, 3)

	w := e.do(http.MethodPost, e.path("/checklists/export-and-delete"), "admin")
	require.Equal(t, http.StatusOK, w.Code)
	body, data := decode(t, w)
	assert.True(t, body.Success)
	assert.EqualValues(t, 3, data["exported"])
	assert.EqualValues(t, 3, data["deleted"])
	assert.Nil(t, data["delete_error"])
	assert.Equal(t, 0, e.count(t))

	url, _ := data["download_url"].(string)
	require.True(t, strings.HasPrefix(url, "https://vigilance.example.com/api/v1/downloads/"))

	w = e.do(http.MethodGet, strings.TrimPrefix(url, "https://vigilance.example.com"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("Last-Modified"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestExportAndDelete_DeleteFailureKeepsDownload(t *testing.T) {
	e := newTestEnv(t, 2)
	e.store.Checklists.DeleteErr = errors.New("connection reset")

	w := e.do(http.MethodPost, e.path("/checklists/export-and-delete"), "admin")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body, data := decode(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "connection reset", data["delete_error"])
	assert.EqualValues(t, 0, data["deleted"])
	assert.Equal(t, 2, e.count(t))
	assert.Len(t, e.archive.files, 1)
}

func TestDownload_UnknownToken(t *testing.T) {
	e := newTestEnv(t, 0)

	w := e.do(http.MethodGet, "/api/v1/downloads/"+ulid.Make().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
