// Package storage persists runtime artifacts: interaction logs and the
// location memory.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/quentin-h/embra/internal/events"
)

// InteractionLog persists bus events to a JSONL file, one file per config.
// It backs the save_interactions mode flag.
type InteractionLog struct {
	dir         string
	name        string
	bus         *events.Bus
	unsubscribe func()
}

// NewInteractionLog creates a log that subscribes to all bus events and
// appends them under dir as <name>.jsonl.
func NewInteractionLog(dir, name string, bus *events.Bus) *InteractionLog {
	il := &InteractionLog{
		dir:  dir,
		name: name,
		bus:  bus,
	}
	il.unsubscribe = bus.Subscribe(il.handleEvent)
	return il
}

// Close unsubscribes the log from the event bus.
func (il *InteractionLog) Close() {
	if il.unsubscribe != nil {
		il.unsubscribe()
	}
}

func (il *InteractionLog) handleEvent(e events.Event) {
	// Probe samples are too noisy to be worth keeping.
	if e.Type == events.EventInputSample {
		return
	}
	_ = il.writeEvent(e)
}

func (il *InteractionLog) writeEvent(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	path := il.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// Path returns the JSONL file the log appends to.
func (il *InteractionLog) Path() string {
	name := il.name
	if name == "" {
		name = "_global"
	}
	return filepath.Join(il.dir, name+".jsonl")
}
