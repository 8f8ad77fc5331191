package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session routing/state.
	ErrSessionBusy  = "E_SESSION_BUSY"
	ErrUnknownActor = "E_UNKNOWN_PARTICIPANT"

	// Rule layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrSuppressed = "E_SUPPRESSED"
	// ErrClaimed accompanies an accepted pickup that a super item rule completed itself.
	ErrClaimed  = "E_CLAIMED"
	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrSessionBusy:     {},
	ErrUnknownActor:    {},
	ErrBadRequest:      {},
	ErrSuppressed:      {},
	ErrClaimed:         {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
