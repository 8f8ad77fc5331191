package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"siegecraft.ai/internal/protocol"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// roundTrip turns a Go message into the generic form the validator expects.
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSchemas_ValidateSamples(t *testing.T) {
	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	validate(compile(t, "hello.schema.json"), roundTrip(t, protocol.HelloMsg{
		Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ParticipantName: "steve",
	}))

	validate(compile(t, "welcome.schema.json"), roundTrip(t, protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "0b9d3c1e-2f7a-4c55-9a61-3f1f3bde1a11",
		ParticipantID:   "P1",
		Team:            "red",
		TickRateHz:      20,
		SuperItems:      []protocol.SuperItemRef{{Key: "horn", DisplayName: "War Horn"}},
	}))

	pos := [3]int{1, 64, -3}
	validate(compile(t, "event.schema.json"), roundTrip(t, protocol.EventMsg{
		Type:            protocol.TypeEvent,
		ProtocolVersion: protocol.Version,
		ID:              "e1",
		Kind:            protocol.EventPickup,
		EntityID:        "IT3",
		Pos:             &pos,
	}))

	validate(compile(t, "ack.schema.json"), roundTrip(t, protocol.AckMsg{
		Type: protocol.TypeAck, ProtocolVersion: protocol.Version, AckFor: "e1", Code: protocol.ErrSuppressed,
	}))

	validate(compile(t, "scoreboard.schema.json"), roundTrip(t, protocol.ScoreboardMsg{
		Type:            protocol.TypeScoreboard,
		ProtocolVersion: protocol.Version,
		Seq:             3,
		Teams: []protocol.TeamBoard{
			{TeamID: "red", Name: "Red", Members: []string{"P1"}, SuperItems: []protocol.SuperItemRef{{Key: "horn", DisplayName: "War Horn"}}},
			{TeamID: "blue", Name: "Blue", Members: []string{}, SuperItems: []protocol.SuperItemRef{}},
		},
		Items: []protocol.ItemStatus{
			{Key: "horn", DisplayName: "War Horn", HolderID: "P1"},
			{Key: "shield", DisplayName: "Aegis", LyingInWorld: true, Pos: &pos},
		},
	}))
}

func TestSchemas_RejectBadEvents(t *testing.T) {
	s := compile(t, "event.schema.json")
	for name, raw := range map[string]string{
		"unknown kind":      `{"type":"EVENT","protocol_version":"1.0","kind":"FLY"}`,
		"pickup without id": `{"type":"EVENT","protocol_version":"1.0","kind":"PICKUP"}`,
		"short pos":         `{"type":"EVENT","protocol_version":"1.0","kind":"MOVE","pos":[1,2]}`,
	} {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if err := s.Validate(v); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestDecodeBase(t *testing.T) {
	m, err := protocol.DecodeBase([]byte(`{"type":"EVENT","protocol_version":"1.0","kind":"MOVE"}`))
	if err != nil || m.Type != protocol.TypeEvent || m.ProtocolVersion != protocol.Version {
		t.Fatalf("decode: %+v %v", m, err)
	}
}
