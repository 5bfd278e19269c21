package plugins

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quentin-h/embra/internal/actions"
	"github.com/quentin-h/embra/internal/events"
	"github.com/quentin-h/embra/internal/storage"
)

// speakConnector executes speech actions. Without a wired voice stack it
// publishes the utterance on the bus and logs it.
type speakConnector struct {
	bus *events.Bus
}

func newSpeakConnector(_ map[string]any, deps Deps) (actions.Connector, error) {
	return &speakConnector{bus: deps.Bus}, nil
}

func (c *speakConnector) Name() string { return "speak" }

func (c *speakConnector) Execute(ctx context.Context, a actions.Action) error {
	sentence, _ := a.Arguments["sentence"].(string)
	if sentence == "" {
		return fmt.Errorf("speak: missing sentence argument")
	}

	slog.Info("speak", "sentence", sentence)
	if c.bus != nil {
		c.bus.Publish(events.New(events.EventActionDispatched, events.SourceCortex, map[string]any{
			"connector": c.Name(),
			"sentence":  sentence,
		}))
	}
	return ctx.Err()
}

// moveConnector executes locomotion actions against the configured robot
// address. Without hardware attached it logs the command.
type moveConnector struct {
	bus     *events.Bus
	robotIP string
}

func newMoveConnector(_ map[string]any, deps Deps) (actions.Connector, error) {
	return &moveConnector{bus: deps.Bus, robotIP: deps.RobotIP}, nil
}

func (c *moveConnector) Name() string { return "move" }

func (c *moveConnector) Execute(ctx context.Context, a actions.Action) error {
	command, _ := a.Arguments["command"].(string)
	if command == "" {
		return fmt.Errorf("move: missing command argument")
	}

	slog.Info("move", "command", command, "robot_ip", c.robotIP)
	if c.bus != nil {
		c.bus.Publish(events.New(events.EventActionDispatched, events.SourceCortex, map[string]any{
			"connector": c.Name(),
			"command":   command,
		}))
	}
	return ctx.Err()
}

// rememberLocationConnector stores the agent's current pose under a name in
// the location memory. Requires remember_locations on the mode.
type rememberLocationConnector struct {
	store *storage.Locations
}

func newRememberLocationConnector(_ map[string]any, deps Deps) (actions.Connector, error) {
	if deps.Locations == nil {
		return nil, fmt.Errorf("remember_location requires remember_locations to be enabled")
	}
	return &rememberLocationConnector{store: deps.Locations}, nil
}

func (c *rememberLocationConnector) Name() string { return "remember_location" }

func (c *rememberLocationConnector) Execute(ctx context.Context, a actions.Action) error {
	name, _ := a.Arguments["name"].(string)
	if name == "" {
		return fmt.Errorf("remember_location: missing name argument")
	}

	loc := storage.Location{Name: name}
	if x, ok := a.Arguments["x"].(float64); ok {
		loc.X = x
	}
	if y, ok := a.Arguments["y"].(float64); ok {
		loc.Y = y
	}
	if theta, ok := a.Arguments["theta"].(float64); ok {
		loc.Theta = theta
	}

	if err := c.store.Remember(loc); err != nil {
		return err
	}
	slog.Info("location remembered", "name", name, "x", loc.X, "y", loc.Y)
	return ctx.Err()
}

// gotoLocationConnector navigates to a previously remembered location.
type gotoLocationConnector struct {
	store *storage.Locations
	bus   *events.Bus
}

func newGotoLocationConnector(_ map[string]any, deps Deps) (actions.Connector, error) {
	if deps.Locations == nil {
		return nil, fmt.Errorf("goto_location requires remember_locations to be enabled")
	}
	return &gotoLocationConnector{store: deps.Locations, bus: deps.Bus}, nil
}

func (c *gotoLocationConnector) Name() string { return "goto_location" }

func (c *gotoLocationConnector) Execute(ctx context.Context, a actions.Action) error {
	name, _ := a.Arguments["name"].(string)
	if name == "" {
		return fmt.Errorf("goto_location: missing name argument")
	}

	loc, ok := c.store.Lookup(name)
	if !ok {
		return fmt.Errorf("goto_location: unknown location %q", name)
	}

	slog.Info("navigating to location", "name", name, "x", loc.X, "y", loc.Y)
	if c.bus != nil {
		c.bus.Publish(events.New(events.EventActionDispatched, events.SourceCortex, map[string]any{
			"connector": c.Name(),
			"location":  name,
		}))
	}
	return ctx.Err()
}
