package protocol

// SCOREBOARD (server -> client) is pushed whenever ownership changes.
type ScoreboardMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Seq             uint64       `json:"seq"`
	Tick            uint64       `json:"tick"`
	Teams           []TeamBoard  `json:"teams"`
	Items           []ItemStatus `json:"items"`
}

type TeamBoard struct {
	TeamID     string         `json:"team_id"`
	Name       string         `json:"name"`
	Members    []string       `json:"members"`
	SuperItems []SuperItemRef `json:"super_items"`
}

type ItemStatus struct {
	Key          string  `json:"key"`
	DisplayName  string  `json:"display_name"`
	HolderID     string  `json:"holder_id,omitempty"`
	LyingInWorld bool    `json:"lying_in_world"`
	Pos          *[3]int `json:"pos,omitempty"`
}
