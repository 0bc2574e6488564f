package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
	// MaxPending bounds the server's outgoing queue for this client.
	MaxPending int `json:"max_pending,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	SessionID       string   `json:"session_id"`
	Height          int64    `json:"height"`
	StateRoot       string   `json:"state_root"`
	CatalogDigest   string   `json:"catalog_digest"`
	ActionTypes     []string `json:"action_types"`
}

// SUBMIT (client -> server): one action for the next block.
type SubmitMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// RequestID is echoed in the ACK or REJECT.
	RequestID string `json:"request_id"`
	Signer    string `json:"signer"`
	Nonce     uint64 `json:"nonce"`
	// Action is the canonical encoding of {type_id, values}, base64 on the wire.
	Action []byte `json:"action"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	TxID            string `json:"tx_id"`
	TypeID          string `json:"type_id"`
	// Height is the block the transaction is staged for.
	Height int64 `json:"height"`
}

type RejectMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}

// RESULT (server -> client): the outcome of an acknowledged transaction.
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	TxID            string `json:"tx_id"`
	Height          int64  `json:"height"`
	TypeID          string `json:"type_id,omitempty"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	OutputRoot      string `json:"output_root"`
	GasUsed         uint64 `json:"gas_used"`
}
