// Command bot is a load client: it submits gold transfers over the
// websocket transport and logs what comes back.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chronicles.ai/internal/genesis"
	"chronicles.ai/internal/protocol"
	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/model"
)

func main() {
	var (
		url       = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name      = flag.String("name", "bot", "client name")
		configDir = flag.String("configs", "./configs", "config directory (genesis.yaml names the gold currency)")
		signerHex = flag.String("signer", "0x00000000000000000000000000000000000000b1", "sending address")
		toHex     = flag.String("to", "0x00000000000000000000000000000000000000b2", "receiving address")
		nonce     = flag.Uint64("nonce", 0, "first nonce")
		every     = flag.Duration("every", 2*time.Second, "submit interval")
		count     = flag.Int("count", 0, "stop after this many submissions (0 = forever)")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.StampMicro}).With().Timestamp().Str("bot", *name).Logger()

	gcfg, err := genesis.Load(filepath.Join(*configDir, "genesis.yaml"))
	if err != nil {
		logger.Fatal().Err(err).Msg("load genesis")
	}
	w, err := genesis.Build(gcfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("build genesis")
	}
	gold, err := model.LoadGoldCurrency(w)
	if err != nil {
		logger.Fatal().Err(err).Msg("gold currency")
	}
	signer, err := address.Parse(*signerHex)
	if err != nil {
		logger.Fatal().Err(err).Msg("-signer")
	}
	to, err := address.Parse(*toHex)
	if err != nil {
		logger.Fatal().Err(err).Msg("-to")
	}
	reg := action.DefaultRegistry()

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("dial")
	}
	defer conn.Close()

	hello := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: *name}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatal().Err(err).Msg("send HELLO")
	}

	go readLoop(conn, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	ticker := time.NewTicker(*every)
	defer ticker.Stop()

	for sent := 0; *count == 0 || sent < *count; sent++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		raw, err := reg.Encode(&action.TransferAsset{Sender: signer, Recipient: to, Amount: gold.Major(1), Memo: fmt.Sprintf("bot %d", sent)})
		if err != nil {
			logger.Fatal().Err(err).Msg("encode")
		}
		sub := protocol.SubmitMsg{
			Type:            protocol.TypeSubmit,
			ProtocolVersion: protocol.Version,
			RequestID:       fmt.Sprintf("%s-%d", *name, sent),
			Signer:          signer.Hex(),
			Nonce:           *nonce + uint64(sent),
			Action:          raw,
		}
		if err := conn.WriteJSON(sub); err != nil {
			logger.Error().Err(err).Msg("send SUBMIT")
			return
		}
	}
	// Give the last results a block or two to arrive.
	time.Sleep(3 * *every)
}

func readLoop(conn *websocket.Conn, logger zerolog.Logger) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Info().Err(err).Msg("connection closed")
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if json.Unmarshal(msg, &w) == nil {
				logger.Info().Str("session", w.SessionID).Int64("height", w.Height).Str("root", w.StateRoot).Msg("WELCOME")
			}
		case protocol.TypeAck:
			var a protocol.AckMsg
			if json.Unmarshal(msg, &a) == nil {
				logger.Info().Str("request", a.AckFor).Str("tx_id", a.TxID).Int64("height", a.Height).Msg("ACK")
			}
		case protocol.TypeReject:
			var r protocol.RejectMsg
			if json.Unmarshal(msg, &r) == nil {
				logger.Warn().Str("request", r.AckFor).Str("code", r.Code).Msg(r.Message)
			}
		case protocol.TypeResult:
			var r protocol.ResultMsg
			if json.Unmarshal(msg, &r) == nil {
				ev := logger.Info()
				if r.Code != "" {
					ev = logger.Warn().Str("code", r.Code)
				}
				ev.Str("tx_id", r.TxID).Int64("height", r.Height).Str("root", r.OutputRoot).Msg("RESULT")
			}
		}
	}
}
