package heartbeat

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriterWritesOnStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.json")

	w := NewWriter(path, func() (string, string) { return "robot", "greeter" })
	w.Start()
	defer w.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("heartbeat not written: %v", err)
	}

	var hb Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if hb.PID != os.Getpid() {
		t.Errorf("pid = %d, want %d", hb.PID, os.Getpid())
	}
	if hb.Config != "robot" || hb.Mode != "greeter" {
		t.Errorf("snapshot fields = %q/%q", hb.Config, hb.Mode)
	}
}

func TestWriterStopRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.json")

	w := NewWriter(path, nil)
	w.Start()
	w.Stop()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("heartbeat file survived Stop: %v", err)
	}
}

func TestWriterStartIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.json")

	w := NewWriter(path, nil)
	w.Start()
	w.Start() // second call is a no-op
	w.Stop()
	w.Stop()
}

func TestCheckAlive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.json")

	w := NewWriter(path, func() (string, string) { return "robot", "patrol" })
	w.Start()
	defer w.Stop()

	status, hb, err := Check(path, 2*time.Minute)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status != StatusAlive {
		t.Errorf("status = %s, want %s", status, StatusAlive)
	}
	if hb == nil || hb.Mode != "patrol" {
		t.Errorf("heartbeat = %+v", hb)
	}
}

func TestCheckStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.json")

	hb := Heartbeat{
		PID:       os.Getpid(),
		StartedAt: time.Now().Add(-time.Hour),
		Timestamp: time.Now().Add(-10 * time.Minute),
	}
	data, _ := json.Marshal(hb)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	status, _, err := Check(path, 2*time.Minute)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status != StatusStale {
		t.Errorf("status = %s, want %s", status, StatusStale)
	}
}

func TestCheckDeadWhenMissing(t *testing.T) {
	status, hb, err := Check(filepath.Join(t.TempDir(), "missing.json"), time.Minute)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status != StatusDead || hb != nil {
		t.Errorf("status = %s, hb = %+v", status, hb)
	}
}

func TestCheckDeadOnCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.json")
	os.WriteFile(path, []byte("not json"), 0o644)

	status, _, err := Check(path, time.Minute)
	if err == nil {
		t.Fatal("expected unmarshal error")
	}
	if status != StatusDead {
		t.Errorf("status = %s, want %s", status, StatusDead)
	}
}
