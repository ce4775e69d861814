package types

import (
	"encoding/json"
	"testing"
)

func TestChannelTypeOpenEnum(t *testing.T) {
	// A type code this library has never seen must survive decode and
	// re-encode unchanged.
	raw := []byte(`{"id":"123","type":99,"name":"future"}`)

	var ch Channel
	if err := json.Unmarshal(raw, &ch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ch.Type.Known() {
		t.Errorf("type 99 should not be a known channel type")
	}
	if ch.Type != ChannelType(99) {
		t.Errorf("type = %d, want 99", ch.Type)
	}

	out, err := json.Marshal(ch)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Channel
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if back.Type != ChannelType(99) {
		t.Errorf("round-trip type = %d, want 99", back.Type)
	}
}

func TestChannelTypeKnown(t *testing.T) {
	for _, known := range []ChannelType{
		ChannelTypeGuildText, ChannelTypeDM, ChannelTypeGuildVoice,
		ChannelTypeGuildCategory, ChannelTypeThread,
	} {
		if !known.Known() {
			t.Errorf("type %d should be known", known)
		}
	}
}

func TestEmojiAPIName(t *testing.T) {
	custom := Emoji{ID: "555", Name: "blob"}
	if got := custom.APIName(); got != "blob:555" {
		t.Errorf("custom APIName = %q, want blob:555", got)
	}
	unicode := Emoji{Name: "👍"}
	if got := unicode.APIName(); got != "👍" {
		t.Errorf("unicode APIName = %q, want raw name", got)
	}
}

func TestMentions(t *testing.T) {
	u := User{ID: "42"}
	if got := u.Mention(); got != "<@42>" {
		t.Errorf("user mention = %q", got)
	}
	c := Channel{ID: "7"}
	if got := c.Mention(); got != "<#7>" {
		t.Errorf("channel mention = %q", got)
	}
}
