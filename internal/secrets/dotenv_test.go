package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetEntryCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	if err := SetEntry(path, "API_KEY", "abc123"); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "API_KEY=abc123\n" {
		t.Errorf("content = %q", data)
	}
}

func TestSetEntryUpdatesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	initial := "# credentials\nAPI_KEY=old\n\nROBOT_IP=10.0.0.1\n"
	if err := os.WriteFile(path, []byte(initial), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := SetEntry(path, "API_KEY", "new"); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")

	if lines[0] != "# credentials" {
		t.Errorf("comment lost: %q", lines[0])
	}
	if lines[1] != "API_KEY=new" {
		t.Errorf("key not updated in place: %q", lines[1])
	}
	if lines[2] != "" || lines[3] != "ROBOT_IP=10.0.0.1" {
		t.Errorf("layout disturbed: %q", content)
	}
	if strings.Count(content, "API_KEY") != 1 {
		t.Errorf("duplicate key: %q", content)
	}
}

func TestSetEntryAppendsNewKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(path, []byte("EXISTING=1\n"), 0o600)

	if err := SetEntry(path, "NEW_KEY", "v"); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "EXISTING=1\nNEW_KEY=v\n" {
		t.Errorf("content = %q", data)
	}
}

func TestSetEntryQuotesSpecialValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	if err := SetEntry(path, "PROMPT", `say "hi" to $USER`); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}

	data, _ := os.ReadFile(path)
	want := `PROMPT="say \"hi\" to $USER"` + "\n"
	if string(data) != want {
		t.Errorf("content = %q, want %q", data, want)
	}
}
