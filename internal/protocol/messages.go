package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ParticipantName string `json:"participant_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	ParticipantID   string         `json:"participant_id"`
	Team            string         `json:"team,omitempty"`
	TickRateHz      int            `json:"tick_rate_hz"`
	SuperItems      []SuperItemRef `json:"super_items"`
	CatalogDigest   string         `json:"catalog_digest,omitempty"`
}

type SuperItemRef struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

// ACK (server -> client) answers one EVENT. Accepted is false when the default
// action was suppressed.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}
