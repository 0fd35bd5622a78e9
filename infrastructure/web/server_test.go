package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"ludarena/auth"
	"ludarena/domain"
	"ludarena/matchmaking"
	"ludarena/repositories"
	"ludarena/rules"
	"ludarena/runtime"
	"ludarena/services"
	"ludarena/session"
)

type testStack struct {
	server *httptest.Server
}

func newTestStack(t *testing.T, oracle rules.Oracle) *testStack {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	accounts := repositories.NewAccountRepository(db)
	records := repositories.NewRecordRepository(db, log)
	snapshots := repositories.NewSessionSnapshotRepository(db)
	queueSnap := repositories.NewQueueSnapshotRepository(db)

	hub := runtime.NewHub(log)
	manager := session.NewManager(log, oracle)
	coordinator := runtime.NewCoordinator(log, matchmaking.NewQueue(log, 0), manager, hub,
		accounts, records, snapshots, queueSnap)

	tokens := auth.NewTokenManager("test-secret-at-least-32-chars-long", time.Hour)
	server := NewServer(log, ":0",
		services.NewAuthService(accounts, tokens),
		services.NewProfileService(accounts, records),
		services.NewArenaService(coordinator, manager, records),
		tokens, hub)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return &testStack{server: ts}
}

func (s *testStack) post(t *testing.T, path, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func (s *testStack) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := s.server.Client().Get(s.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (s *testStack) register(t *testing.T, username string) string {
	t.Helper()
	resp := s.post(t, "/api/register", "", credentialsRequest{Username: username, Password: "ComplexPass123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[tokenResponse](t, resp).Token
}

func Test_Health(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, rules.NewScript())

	resp := stack.get(t, "/api/health")
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("ok", decodeBody[map[string]string](t, resp)["status"])
}

func Test_Register_And_Login(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, rules.NewScript())

	token := stack.register(t, "alice")
	req.NotEmpty(token)

	// Duplicate username is a conflict.
	resp := stack.post(t, "/api/register", "", credentialsRequest{Username: "alice", Password: "ComplexPass123"})
	req.Equal(http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Weak password is rejected before any persistence.
	resp = stack.post(t, "/api/register", "", credentialsRequest{Username: "bob", Password: "weak"})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = stack.post(t, "/api/login", "", credentialsRequest{Username: "alice", Password: "ComplexPass123"})
	req.Equal(http.StatusOK, resp.StatusCode)
	req.NotEmpty(decodeBody[tokenResponse](t, resp).Token)

	resp = stack.post(t, "/api/login", "", credentialsRequest{Username: "alice", Password: "WrongPass123"})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func Test_Queue_Requires_Auth(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, rules.NewScript())

	resp := stack.post(t, "/api/queue/join", "", joinQueueRequest{Class: "blitz"})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func Test_Queue_Join_And_Match(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, rules.NewScript())

	aliceToken := stack.register(t, "alice")
	bobToken := stack.register(t, "bob")

	resp := stack.post(t, "/api/queue/join", aliceToken, joinQueueRequest{Class: "blitz"})
	req.Equal(http.StatusOK, resp.StatusCode)
	first := decodeBody[joinQueueResponse](t, resp)
	req.False(first.Matched)

	// Unknown class is rejected.
	resp = stack.post(t, "/api/queue/join", bobToken, joinQueueRequest{Class: "hyperbullet"})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = stack.post(t, "/api/queue/join", bobToken, joinQueueRequest{Class: "blitz"})
	req.Equal(http.StatusOK, resp.StatusCode)
	second := decodeBody[joinQueueResponse](t, resp)
	req.True(second.Matched)
	req.NotEmpty(second.SessionID)

	// The created session is visible over REST.
	resp = stack.get(t, "/api/session/"+second.SessionID)
	req.Equal(http.StatusOK, resp.StatusCode)
	view := decodeBody[sessionResponse](t, resp)
	req.Equal(string(domain.StatusActive), view.Status)
	req.Equal(string(domain.RoleWhite), view.Turn)
}

func Test_Queue_Leave(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, rules.NewScript())

	token := stack.register(t, "alice")
	resp := stack.post(t, "/api/queue/join", token, joinQueueRequest{Class: "blitz"})
	req.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = stack.post(t, "/api/queue/leave", token, nil)
	req.Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// A second leave stays a no-op.
	resp = stack.post(t, "/api/queue/leave", token, nil)
	req.Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func Test_Unknown_Lookups_Return_404(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, rules.NewScript())

	resp := stack.get(t, "/api/account/ghost")
	req.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = stack.get(t, "/api/session/ghost")
	req.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func Test_Leaderboard_And_History(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, rules.NewScript())

	stack.register(t, "alice")
	stack.register(t, "bob")

	resp := stack.get(t, "/api/leaderboard?limit=1")
	req.Equal(http.StatusOK, resp.StatusCode)
	board := decodeBody[[]profileResponse](t, resp)
	req.Len(board, 1)

	accountResp := stack.get(t, "/api/account/" + board[0].ID + "/games")
	req.Equal(http.StatusOK, accountResp.StatusCode)
	history := decodeBody[[]recordResponse](t, accountResp)
	req.Empty(history)
}

func Test_Websocket_Requires_Token(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, rules.NewScript())

	resp, err := http.Get(stack.server.URL + "/ws")
	req.NoError(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
