// Package ws is the websocket front door: clients HELLO, then SUBMIT
// actions and receive an ACK or REJECT immediately and a RESULT once the
// transaction lands in a block.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chronicles.ai/internal/node"
	"chronicles.ai/internal/protocol"
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/stage"
)

const (
	defaultMaxPending = 64
	maxMaxPending     = 1024
)

type Server struct {
	node *node.Node
	log  zerolog.Logger

	upgrader websocket.Upgrader
	sessions atomic.Int64
}

func NewServer(n *node.Node, log zerolog.Logger) *Server {
	return &Server{
		node: n,
		log:  log.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Sessions is the number of connected clients.
func (s *Server) Sessions() int64 { return s.sessions.Load() }

// pendingTx tracks a submitted transaction until its RESULT is sent. A
// result that arrives before the ACK went out is held back.
type pendingTx struct {
	acked  bool
	result []byte
}

type session struct {
	id     string
	out    chan []byte
	cancel context.CancelFunc
	log    zerolog.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingTx
}

// sendLocked queues b without blocking. A client that cannot keep up is
// disconnected.
func (c *session) sendLocked(b []byte) {
	select {
	case c.out <- b:
	default:
		c.log.Warn().Msg("outgoing queue full, closing session")
		c.cancel()
	}
}

func (c *session) onResult(r node.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[r.TxID]
	if !ok {
		return
	}
	b, err := json.Marshal(protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		TxID:            r.TxID.String(),
		Height:          r.Height,
		TypeID:          r.Evaluation.TypeID,
		Code:            r.Code,
		Message:         r.Evaluation.ErrorDetail,
		OutputRoot:      r.OutputRoot,
		GasUsed:         r.Evaluation.GasUsed,
	})
	if err != nil {
		return
	}
	if !p.acked {
		p.result = b
		return
	}
	delete(c.pending, r.TxID)
	c.sendLocked(b)
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sess := s.handshake(conn, cancel)
		if sess == nil {
			return
		}
		s.sessions.Add(1)
		defer s.sessions.Add(-1)
		unsubscribe := s.node.Subscribe(sess.onResult)
		defer unsubscribe()
		sess.log.Info().Msg("session started")

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					// Unblocks the reader.
					_ = conn.Close()
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for ctx.Err() == nil {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			s.handleMessage(sess, msg)
		}
		cancel()
		sess.log.Info().Msg("session closed")
	}
}

func (s *Server) handleMessage(sess *session, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.reject(sess, "", protocol.ErrProtoBadRequest, err.Error())
		return
	}
	if base.Type != protocol.TypeSubmit {
		s.reject(sess, "", protocol.ErrProtoBadRequest, "unexpected message type "+base.Type)
		return
	}
	if err := protocol.ValidateClientMessage(protocol.TypeSubmit, msg); err != nil {
		s.reject(sess, "", protocol.ErrProtoBadRequest, err.Error())
		return
	}
	var sub protocol.SubmitMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		s.reject(sess, "", protocol.ErrProtoBadRequest, err.Error())
		return
	}
	if sub.ProtocolVersion != protocol.Version {
		s.reject(sess, sub.RequestID, protocol.ErrProtoBadRequest, "bad protocol_version")
		return
	}
	signer, err := address.Parse(sub.Signer)
	if err != nil {
		s.reject(sess, sub.RequestID, protocol.ErrProtoBadRequest, err.Error())
		return
	}

	id := uuid.New()
	sess.mu.Lock()
	sess.pending[id] = &pendingTx{}
	sess.mu.Unlock()

	tx, err := s.node.Submit(stage.Tx{ID: id, Signer: signer, Nonce: sub.Nonce, Action: sub.Action})
	if err != nil {
		sess.mu.Lock()
		delete(sess.pending, id)
		sess.mu.Unlock()
		code := protocol.CodeForError(err)
		var rej *stage.Rejection
		if errors.As(err, &rej) {
			code = rej.Code
		}
		s.reject(sess, sub.RequestID, code, err.Error())
		return
	}

	ack, err := json.Marshal(protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          sub.RequestID,
		TxID:            tx.ID.String(),
		TypeID:          tx.TypeID,
		Height:          s.node.NextHeight(),
	})
	if err != nil {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.sendLocked(ack)
	p := sess.pending[id]
	if p == nil {
		return
	}
	p.acked = true
	if p.result != nil {
		delete(sess.pending, id)
		sess.sendLocked(p.result)
	}
}

func (s *Server) reject(sess *session, ackFor, code, msg string) {
	b, err := json.Marshal(protocol.RejectMsg{
		Type:            protocol.TypeReject,
		ProtocolVersion: protocol.Version,
		AckFor:          ackFor,
		Code:            code,
		Message:         msg,
	})
	if err != nil {
		return
	}
	sess.log.Debug().Str("code", code).Str("request_id", ackFor).Msg("rejected")
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.sendLocked(b)
}

func (s *Server) handshake(conn *websocket.Conn, cancel context.CancelFunc) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil
	}
	if err := protocol.ValidateClientMessage(protocol.TypeHello, msg); err != nil {
		closeWith(conn, "invalid HELLO")
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	maxQ := hello.MaxPending
	if maxQ <= 0 {
		maxQ = defaultMaxPending
	}
	if maxQ > maxMaxPending {
		maxQ = maxMaxPending
	}

	tip, height := s.node.Tip()
	eng := s.node.Engine()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		Height:          height,
		StateRoot:       tip.StateRootHex(),
		CatalogDigest:   eng.Catalogs().Digest,
		ActionTypes:     eng.Registry().Types(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}

	return &session{
		id:      welcome.SessionID,
		out:     make(chan []byte, maxQ),
		cancel:  cancel,
		log:     s.log.With().Str("session", welcome.SessionID).Str("client", hello.ClientName).Logger(),
		pending: make(map[uuid.UUID]*pendingTx),
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
