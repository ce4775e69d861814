package protocol

import (
	"encoding/json"
	"testing"
)

func TestClassifyClose(t *testing.T) {
	cases := []struct {
		name string
		code int
		want CloseAction
	}{
		{"auth failure reidentifies", CloseAuthenticationFailed, ActionReidentify},
		{"sharding invalid stops", CloseShardingInvalid, ActionStop},
		{"intents disallowed stops", CloseIntentsDisallowed, ActionStop},
		{"unknown error resumes", CloseUnknownError, ActionResume},
		{"session timeout resumes", CloseSessionTimedOut, ActionResume},
		{"unrecognized code resumes", 4942, ActionResume},
		{"normal closure resumes", 1000, ActionResume},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyClose(tc.code); got != tc.want {
				t.Errorf("ClassifyClose(%d) = %s, want %s", tc.code, got, tc.want)
			}
		})
	}
}

func TestNewHeartbeatCarriesSequence(t *testing.T) {
	f, err := NewHeartbeat(42)
	if err != nil {
		t.Fatalf("NewHeartbeat: %v", err)
	}
	if f.Op != OpHeartbeat {
		t.Errorf("op = %d, want %d", f.Op, OpHeartbeat)
	}
	var seq int64
	if err := json.Unmarshal(f.D, &seq); err != nil {
		t.Fatalf("decode d: %v", err)
	}
	if seq != 42 {
		t.Errorf("d = %d, want 42", seq)
	}
}

func TestIdentifyWireShape(t *testing.T) {
	f, err := NewIdentify(Identify{
		Token:      "Bot x",
		Intents:    IntentsDefault,
		Shard:      &[2]int{0, 1},
		Properties: Properties{OS: "linux", ClientName: "concord-go", Device: "concord-go"},
	})
	if err != nil {
		t.Fatalf("NewIdentify: %v", err)
	}

	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}

	var decoded struct {
		Op int `json:"op"`
		D  struct {
			Token      string  `json:"token"`
			Intents    Intents `json:"intents"`
			Shard      []int   `json:"shard"`
			Properties struct {
				OS string `json:"os"`
			} `json:"properties"`
		} `json:"d"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if decoded.Op != OpIdentify {
		t.Errorf("op = %d, want %d", decoded.Op, OpIdentify)
	}
	if decoded.D.Token != "Bot x" {
		t.Errorf("token = %q", decoded.D.Token)
	}
	if len(decoded.D.Shard) != 2 || decoded.D.Shard[0] != 0 || decoded.D.Shard[1] != 1 {
		t.Errorf("shard = %v, want [0 1]", decoded.D.Shard)
	}
	if decoded.D.Properties.OS != "linux" {
		t.Errorf("properties.os = %q", decoded.D.Properties.OS)
	}
}

func TestIntents(t *testing.T) {
	if !IntentsDefault.Has(IntentGuilds) {
		t.Error("default intents should include guilds")
	}
	if IntentsDefault.Has(IntentGuildPresences) {
		t.Error("default intents should not include privileged presences")
	}
	if !IntentsAll.Has(IntentMessageContent) {
		t.Error("all intents should include message content")
	}
}
