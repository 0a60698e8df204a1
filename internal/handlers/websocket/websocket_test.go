package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/domain/condominium"
	wstypes "vigilance-service/internal/domain/websocket"
	xerrors "vigilance-service/internal/pkg/errors"
	ws "vigilance-service/internal/websocket"
)

type noCondos struct{}

func (noCondos) FindByID(context.Context, int64) (*condominium.Condominium, error) {
	return nil, xerrors.ErrNotFound
}

func newServer(t *testing.T, origins []string) (*httptest.Server, *ws.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub(ws.AuthenticatorFunc(func(_ context.Context, token string) (*auth.Principal, error) {
		if token == "guard" {
			return &auth.Principal{UserID: 5, Role: auth.RoleVigilante, JTI: "s1"}, nil
		}
		return nil, xerrors.ErrUnauthorized
	}), noCondos{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	h := NewWebSocketHandler(hub, origins, zap.NewNop())
	r := gin.New()
	r.GET("/ws", h.HandleConnection)
	r.GET("/stats", h.GetStats)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestHandleConnection_RejectsMissingAndBadTokens(t *testing.T) {
	srv, _ := newServer(t, nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=nope", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleConnection_RegistersClient(t *testing.T) {
	srv, hub := newServer(t, nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=guard"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := wstypes.ParseMessage(data)
	require.NoError(t, err)
	assert.Equal(t, wstypes.EventTypeConnected, msg.Type)
	assert.True(t, hub.IsUserConnected(5))
}

func TestHandleConnection_ChecksOrigin(t *testing.T) {
	srv, _ := newServer(t, []string{"https://app.example.com"})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=guard"

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://app.example.com/")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestOriginChecker(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	assert.True(t, originChecker(nil)(req))
	assert.True(t, originChecker([]string{"*"})(req))
	assert.True(t, originChecker([]string{"http://localhost:3000/"})(req))
	assert.False(t, originChecker([]string{"https://app.example.com"})(req))
}
