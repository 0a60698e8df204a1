package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/domain/checklist"
	"vigilance-service/internal/domain/condominium"
	wstypes "vigilance-service/internal/domain/websocket"
	xerrors "vigilance-service/internal/pkg/errors"
)

type fakeAuth map[string]*auth.Principal

func (f fakeAuth) Authenticate(_ context.Context, token string) (*auth.Principal, error) {
	if p, ok := f[token]; ok {
		return p, nil
	}
	return nil, xerrors.ErrUnauthorized
}

type fakeCondos map[int64]int64

func (f fakeCondos) FindByID(_ context.Context, id int64) (*condominium.Condominium, error) {
	owner, ok := f[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &condominium.Condominium{ID: id, OwnerID: owner}, nil
}

func startHub(t *testing.T, condos fakeCondos) *Hub {
	t.Helper()
	h := NewHub(fakeAuth{}, condos, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func connect(t *testing.T, h *Hub, p *auth.Principal) *Client {
	t.Helper()
	c := NewClient(h, nil, p)
	h.Register <- c
	msg := next(t, c)
	require.Equal(t, wstypes.EventTypeConnected, msg.Type)
	return c
}

func next(t *testing.T, c *Client) *wstypes.WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		msg, err := wstypes.ParseMessage(data)
		require.NoError(t, err)
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func silent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func admin(id int64) *auth.Principal {
	return &auth.Principal{UserID: id, Role: auth.RoleAdmin, Admin: true, JTI: "jti-admin"}
}

func guard(id int64) *auth.Principal {
	return &auth.Principal{UserID: id, Role: auth.RoleVigilante, JTI: "jti-guard"}
}

func TestHub_ChecklistCreatedReachesOwningAdmin(t *testing.T) {
	h := startHub(t, fakeCondos{7: 1})
	owner := connect(t, h, admin(1))
	other := connect(t, h, admin(2))
	g := connect(t, h, guard(3))

	h.ChecklistCreated(7, checklist.Summary{ID: 42, CondominiumID: 7, MotorcyclePlate: "ABC-1234"})

	msg := next(t, owner)
	assert.Equal(t, wstypes.EventTypeChecklistCreated, msg.Type)

	var data wstypes.ChecklistCreatedData
	require.NoError(t, mapToStruct(msg.Data, &data))
	assert.Equal(t, int64(7), data.CondominiumID)
	assert.Equal(t, int64(42), data.Checklist.ID)
	assert.Equal(t, "ABC-1234", data.Checklist.MotorcyclePlate)

	silent(t, other)
	silent(t, g)
}

func TestHub_ChecklistsDeletedSkipsGuardSessionsOfOwner(t *testing.T) {
	h := startHub(t, fakeCondos{7: 1})
	owner := connect(t, h, admin(1))
	// A non-admin session of the same user id never joins the checklist feed.
	same := connect(t, h, guard(1))

	h.ChecklistsDeleted(7, []int64{4, 5})

	msg := next(t, owner)
	assert.Equal(t, wstypes.EventTypeChecklistDeleted, msg.Type)
	var data wstypes.ChecklistDeletedData
	require.NoError(t, mapToStruct(msg.Data, &data))
	assert.Equal(t, []int64{4, 5}, data.IDs)

	silent(t, same)
}

func TestHub_UnknownCondominiumDropsEvent(t *testing.T) {
	h := startHub(t, fakeCondos{})
	owner := connect(t, h, admin(1))

	h.ChecklistCreated(99, checklist.Summary{ID: 1})
	silent(t, owner)
}

func TestHub_ForceLogoutReachesGuard(t *testing.T) {
	h := startHub(t, fakeCondos{})
	g := connect(t, h, guard(3))

	h.ForceLogout(3, "jti-guard", "User logged out")

	msg := next(t, g)
	assert.Equal(t, wstypes.EventTypeForceLogout, msg.Type)
}

func TestClient_SubscribeRestrictions(t *testing.T) {
	h := NewHub(fakeAuth{}, fakeCondos{}, zap.NewNop())

	g := NewClient(h, nil, guard(3))
	assert.Equal(t, int64(3), g.GetUserID())
	assert.Equal(t, guard(3).JTI, g.GetSessionID())
	assert.False(t, g.Subscribe(wstypes.ChannelChecklists))
	assert.True(t, g.Subscribe(wstypes.ChannelSystem))
	assert.False(t, g.Subscribe("audit"))

	a := NewClient(h, nil, admin(1))
	assert.True(t, a.Subscribe(wstypes.ChannelChecklists))
	a.Unsubscribe(wstypes.ChannelChecklists)
	assert.False(t, a.IsSubscribed(wstypes.ChannelChecklists))
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	h := NewHub(fakeAuth{}, fakeCondos{}, zap.NewNop())
	c := NewClient(h, nil, admin(1))

	c.Close()
	assert.NotPanics(t, c.Close)
	assert.False(t, c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil)))
}

func TestHub_DisconnectUser(t *testing.T) {
	h := startHub(t, fakeCondos{})
	connect(t, h, admin(1))
	connect(t, h, admin(1))
	require.Equal(t, 2, h.GetConnectedClients(1))

	h.DisconnectUser(1, "account disabled")
	assert.False(t, h.IsUserConnected(1))
	assert.Equal(t, 0, h.TotalClients())
}

type echoRecent struct{}

func (echoRecent) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeChecklistRecent}
}

func (echoRecent) HandleMessage(_ context.Context, client *Client, msg *wstypes.WSMessage) error {
	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeChecklistRecent, msg.Data))
	return nil
}

func TestHub_OverRealConnection(t *testing.T) {
	principals := fakeAuth{"good": admin(1)}
	h := NewHub(principals, fakeCondos{7: 1}, zap.NewNop())
	h.RegisterHandler(echoRecent{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := h.AuthenticateClient(r.Context(), r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(h, conn, p)
		h.Register <- c
		go c.WritePump()
		go c.ReadPump()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() *wstypes.WSMessage {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		msg, err := wstypes.ParseMessage(data)
		require.NoError(t, err)
		return msg
	}

	assert.Equal(t, wstypes.EventTypeConnected, read().Type)

	ping, _ := json.Marshal(wstypes.NewMessage(wstypes.EventTypePing, nil))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, ping))
	assert.Equal(t, wstypes.EventTypePong, read().Type)

	recent, _ := json.Marshal(wstypes.NewMessage(wstypes.EventTypeChecklistRecent, map[string]int{"condominium_id": 7}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, recent))
	assert.Equal(t, wstypes.EventTypeChecklistRecent, read().Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, wstypes.EventTypeError, read().Type)

	h.ChecklistCreated(7, checklist.Summary{ID: 9})
	assert.Equal(t, wstypes.EventTypeChecklistCreated, read().Type)
}
