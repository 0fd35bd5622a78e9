package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"ludarena/rules"
)

func dialWS(t *testing.T, stack *testStack, token string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(stack.server.URL, "http://", "ws://", 1) + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type wireMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error"`
}

func readWire(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func sendWire(t *testing.T, conn *websocket.Conn, msg inboundMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

// matchOverRest pairs two fresh accounts and returns both tokens plus
// the session id.
func matchOverRest(t *testing.T, stack *testStack) (string, string, string) {
	t.Helper()
	aliceToken := stack.register(t, "alice")
	bobToken := stack.register(t, "bob")

	resp := stack.post(t, "/api/queue/join", aliceToken, joinQueueRequest{Class: "blitz"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = stack.post(t, "/api/queue/join", bobToken, joinQueueRequest{Class: "blitz"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	matched := decodeBody[joinQueueResponse](t, resp)
	require.True(t, matched.Matched)
	return aliceToken, bobToken, matched.SessionID
}

func Test_Websocket_Play_Resign_Settle(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, rules.NewScript())

	aliceToken, bobToken, sessionID := matchOverRest(t, stack)

	aliceConn := dialWS(t, stack, aliceToken)
	bobConn := dialWS(t, stack, bobToken)

	sendWire(t, aliceConn, inboundMessage{Type: "attach", SessionID: sessionID})
	sendWire(t, bobConn, inboundMessage{Type: "attach", SessionID: sessionID})

	var aliceAttached, bobAttached attachedPayload
	msg := readWire(t, aliceConn)
	req.Equal("attached", msg.Type)
	req.NoError(json.Unmarshal(msg.Payload, &aliceAttached))
	msg = readWire(t, bobConn)
	req.Equal("attached", msg.Type)
	req.NoError(json.Unmarshal(msg.Payload, &bobAttached))

	// Seats are assigned randomly at match time; play from whichever
	// connection holds white.
	whiteConn, blackConn := aliceConn, bobConn
	if aliceAttached.Role != "white" {
		whiteConn, blackConn = bobConn, aliceConn
	}

	// Moving out of turn is rejected on the sender's channel only.
	sendWire(t, blackConn, inboundMessage{Type: "move", SessionID: sessionID, Move: "e7e5"})
	msg = readWire(t, blackConn)
	req.Equal("error", msg.Type)
	req.NotEmpty(msg.Error)

	// A legal move fans out to both subscribers.
	sendWire(t, whiteConn, inboundMessage{Type: "move", SessionID: sessionID, Move: "e2e4"})
	for _, conn := range []*websocket.Conn{whiteConn, blackConn} {
		msg = readWire(t, conn)
		req.Equal("move_accepted", msg.Type)
		var payload moveAcceptedPayload
		req.NoError(json.Unmarshal(msg.Payload, &payload))
		req.Equal("e2e4", payload.Move)
		req.Equal("black", payload.Turn)
	}

	// White resigns: both see the departure, then the settlement.
	sendWire(t, whiteConn, inboundMessage{Type: "resign", SessionID: sessionID})
	for _, conn := range []*websocket.Conn{whiteConn, blackConn} {
		msg = readWire(t, conn)
		req.Equal("participant_left", msg.Type)
		msg = readWire(t, conn)
		req.Equal("settlement_applied", msg.Type)
		var payload settlementAppliedPayload
		req.NoError(json.Unmarshal(msg.Payload, &payload))
		req.Equal("black-wins", payload.Outcome)
		req.Negative(payload.WhiteDelta)
		req.Positive(payload.BlackDelta)
	}
}

func Test_Websocket_Attach_Unknown_Session(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, rules.NewScript())
	token := stack.register(t, "alice")

	conn := dialWS(t, stack, token)
	sendWire(t, conn, inboundMessage{Type: "attach", SessionID: "ghost"})

	msg := readWire(t, conn)
	req.Equal("error", msg.Type)
	req.NotEmpty(msg.Error)
}

func Test_Websocket_Disconnect_Forfeits(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, rules.NewScript())

	aliceToken, bobToken, sessionID := matchOverRest(t, stack)

	aliceConn := dialWS(t, stack, aliceToken)
	bobConn := dialWS(t, stack, bobToken)
	sendWire(t, aliceConn, inboundMessage{Type: "attach", SessionID: sessionID})
	sendWire(t, bobConn, inboundMessage{Type: "attach", SessionID: sessionID})

	var aliceAttached attachedPayload
	msg := readWire(t, aliceConn)
	req.Equal("attached", msg.Type)
	req.NoError(json.Unmarshal(msg.Payload, &aliceAttached))
	readWire(t, bobConn)

	whiteConn, survivorConn := aliceConn, bobConn
	if aliceAttached.Role != "white" {
		whiteConn, survivorConn = bobConn, aliceConn
	}

	sendWire(t, whiteConn, inboundMessage{Type: "move", SessionID: sessionID, Move: "e2e4"})
	readWire(t, whiteConn)
	readWire(t, survivorConn)

	// The white player vanishes mid game: the survivor wins by forfeit.
	req.NoError(whiteConn.Close())

	msg = readWire(t, survivorConn)
	req.Equal("participant_left", msg.Type)
	var left participantLeftPayload
	req.NoError(json.Unmarshal(msg.Payload, &left))
	req.Equal("disconnect", left.Reason)

	msg = readWire(t, survivorConn)
	req.Equal("settlement_applied", msg.Type)
	var settled settlementAppliedPayload
	req.NoError(json.Unmarshal(msg.Payload, &settled))
	req.Equal("black-wins", settled.Outcome)
}
