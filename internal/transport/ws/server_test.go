package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/node"
	"chronicles.ai/internal/protocol"
	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/simtest"
	"chronicles.ai/internal/sim/tuning"
	"chronicles.ai/internal/stage"
)

func startServer(t *testing.T) (*node.Node, *simtest.Harness, *Server, string) {
	t.Helper()
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	adm := tuning.Default().Admission
	adm.SignerRatePerSec = 0
	pool := stage.NewPool(h.Engine.Registry(), adm, nil, zerolog.Nop())
	n := node.New(h.Engine, pool, h.World, 0, node.Config{BlockInterval: time.Hour}, zerolog.Nop())
	s := NewServer(n, zerolog.Nop())
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(hs.Close)
	return n, h, s, "ws" + strings.TrimPrefix(hs.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn, v any) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	base, err := protocol.DecodeBase(b)
	require.NoError(t, err)
	if v != nil {
		require.NoError(t, json.Unmarshal(b, v))
	}
	return base.Type
}

func hello(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	require.NoError(t, conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "test"}))
	var w protocol.WelcomeMsg
	require.Equal(t, protocol.TypeWelcome, readMsg(t, conn, &w))
	return w
}

func submitMsg(t *testing.T, h *simtest.Harness, reqID string, nonce uint64, a action.Action) protocol.SubmitMsg {
	t.Helper()
	raw, err := h.Engine.Registry().Encode(a)
	require.NoError(t, err)
	return protocol.SubmitMsg{
		Type:            protocol.TypeSubmit,
		ProtocolVersion: protocol.Version,
		RequestID:       reqID,
		Signer:          simtest.Alice.Hex(),
		Nonce:           nonce,
		Action:          raw,
	}
}

func TestSubmitAckResult(t *testing.T) {
	n, h, s, url := startServer(t)
	conn := dial(t, url)

	w := hello(t, conn)
	assert.NotEmpty(t, w.SessionID)
	assert.Zero(t, w.Height)
	assert.Equal(t, h.World.StateRootHex(), w.StateRoot)
	assert.Equal(t, h.Engine.Catalogs().Digest, w.CatalogDigest)
	assert.Contains(t, w.ActionTypes, (&action.Stake{}).TypeID())
	require.Eventually(t, func() bool { return s.Sessions() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(submitMsg(t, h, "r1", 0, &action.Stake{Amount: 500})))
	var ack protocol.AckMsg
	require.Equal(t, protocol.TypeAck, readMsg(t, conn, &ack))
	assert.Equal(t, "r1", ack.AckFor)
	assert.EqualValues(t, 1, ack.Height)
	assert.Equal(t, (&action.Stake{}).TypeID(), ack.TypeID)

	block, err := n.ProduceBlock(context.Background())
	require.NoError(t, err)
	require.Len(t, block.Results, 1)

	var res protocol.ResultMsg
	require.Equal(t, protocol.TypeResult, readMsg(t, conn, &res))
	assert.Equal(t, ack.TxID, res.TxID)
	assert.EqualValues(t, 1, res.Height)
	assert.Empty(t, res.Code)
	assert.Equal(t, block.StateRoot, res.OutputRoot)
	assert.EqualValues(t, 1, res.GasUsed)
}

func TestResultCarriesErrorCode(t *testing.T) {
	n, h, _, url := startServer(t)
	conn := dial(t, url)
	hello(t, conn)

	overdraw := &action.TransferAsset{Sender: simtest.Alice, Recipient: simtest.Bob, Amount: simtest.Gold.Major(simtest.StartingGold + 1)}
	require.NoError(t, conn.WriteJSON(submitMsg(t, h, "r1", 0, overdraw)))
	require.Equal(t, protocol.TypeAck, readMsg(t, conn, nil))

	_, err := n.ProduceBlock(context.Background())
	require.NoError(t, err)
	var res protocol.ResultMsg
	require.Equal(t, protocol.TypeResult, readMsg(t, conn, &res))
	assert.Equal(t, protocol.ErrInsufficientBalance, res.Code)
	assert.NotEmpty(t, res.Message)
}

func TestRejections(t *testing.T) {
	_, h, _, url := startServer(t)
	conn := dial(t, url)
	hello(t, conn)

	var rej protocol.RejectMsg

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"SUBMIT","protocol_version":"1.0"}`)))
	require.Equal(t, protocol.TypeReject, readMsg(t, conn, &rej))
	assert.Equal(t, protocol.ErrProtoBadRequest, rej.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"PING"}`)))
	require.Equal(t, protocol.TypeReject, readMsg(t, conn, &rej))
	assert.Equal(t, protocol.ErrProtoBadRequest, rej.Code)

	bad := submitMsg(t, h, "r2", 0, &action.Stake{Amount: 500})
	bad.Action = []byte("garbage!")
	require.NoError(t, conn.WriteJSON(bad))
	require.Equal(t, protocol.TypeReject, readMsg(t, conn, &rej))
	assert.Equal(t, "r2", rej.AckFor)
	assert.Equal(t, protocol.ErrBadRequest, rej.Code)

	require.NoError(t, conn.WriteJSON(submitMsg(t, h, "r3", 0, &action.Stake{Amount: 500})))
	require.Equal(t, protocol.TypeAck, readMsg(t, conn, nil))
	require.NoError(t, conn.WriteJSON(submitMsg(t, h, "r4", 0, &action.Stake{Amount: 600})))
	require.Equal(t, protocol.TypeReject, readMsg(t, conn, &rej))
	assert.Equal(t, "r4", rej.AckFor)
	assert.Equal(t, protocol.ErrConflict, rej.Code)
}

func TestResultsOnlyGoToSubmitter(t *testing.T) {
	n, h, _, url := startServer(t)
	a := dial(t, url)
	b := dial(t, url)
	hello(t, a)
	hello(t, b)

	require.NoError(t, a.WriteJSON(submitMsg(t, h, "r1", 0, &action.Stake{Amount: 500})))
	require.Equal(t, protocol.TypeAck, readMsg(t, a, nil))
	_, err := n.ProduceBlock(context.Background())
	require.NoError(t, err)
	require.Equal(t, protocol.TypeResult, readMsg(t, a, nil))

	require.NoError(t, b.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = b.ReadMessage()
	assert.Error(t, err)
}

func TestHandshakeRejectsBadVersion(t *testing.T) {
	_, _, _, url := startServer(t)
	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.1"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, websocket.ClosePolicyViolation, ce.Code)
}

func TestHandshakeRequiresHello(t *testing.T) {
	_, h, _, url := startServer(t)
	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(submitMsg(t, h, "r1", 0, &action.Stake{Amount: 500})))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}
