package protocol

import (
	"encoding/json"

	"github.com/samber/oops"
)

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeSubmit  = "SUBMIT"
	TypeAck     = "ACK"
	TypeReject  = "REJECT"
	TypeResult  = "RESULT"
)

// BaseMessage is the envelope shared by every message; the receiver picks
// the concrete type from Type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return m, oops.In("protocol").Wrapf(err, "decode message envelope")
	}
	if m.Type == "" {
		return m, oops.In("protocol").Errorf("message has no type")
	}
	return m, nil
}
