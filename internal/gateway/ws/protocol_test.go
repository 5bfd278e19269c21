package ws

import (
	"encoding/json"
	"testing"
)

func TestParseRequestFrame(t *testing.T) {
	raw := []byte(`{"type":"req","id":"42","method":"switch_mode","params":{"mode":"patrol"}}`)

	f, err := ParseFrame(raw)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if f.Type != FrameTypeRequest || f.ID != "42" || f.Method != string(MethodSwitchMode) {
		t.Errorf("frame = %+v", f)
	}

	var params SwitchModeParams
	if err := json.Unmarshal(f.Params, &params); err != nil {
		t.Fatalf("params: %v", err)
	}
	if params.Mode != "patrol" {
		t.Errorf("mode = %q", params.Mode)
	}
}

func TestParseFrameRejectsGarbage(t *testing.T) {
	if _, err := ParseFrame([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestResponseFrameRoundTrip(t *testing.T) {
	f, err := NewResponseFrame("7", true, map[string]string{"mode": "patrol"}, "")
	if err != nil {
		t.Fatalf("NewResponseFrame: %v", err)
	}

	data, err := MarshalFrame(f)
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}

	back, err := ParseFrame(data)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if back.Type != FrameTypeResponse || back.ID != "7" {
		t.Errorf("frame = %+v", back)
	}
	if back.OK == nil || !*back.OK {
		t.Error("ok flag lost")
	}

	var payload map[string]string
	if err := json.Unmarshal(back.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["mode"] != "patrol" {
		t.Errorf("payload = %v", payload)
	}
}

func TestErrorResponseFrame(t *testing.T) {
	f, err := NewResponseFrame("9", false, nil, "unknown mode")
	if err != nil {
		t.Fatalf("NewResponseFrame: %v", err)
	}
	if f.OK == nil || *f.OK {
		t.Error("ok flag should be false")
	}
	if f.Error != "unknown mode" {
		t.Errorf("error = %q", f.Error)
	}
	if len(f.Payload) != 0 {
		t.Errorf("payload = %s", f.Payload)
	}
}

func TestEventFrame(t *testing.T) {
	f, err := NewEventFrame("mode.switched", map[string]string{"to": "patrol"})
	if err != nil {
		t.Fatalf("NewEventFrame: %v", err)
	}
	if f.Type != FrameTypeEvent || f.Event != "mode.switched" {
		t.Errorf("frame = %+v", f)
	}
}
