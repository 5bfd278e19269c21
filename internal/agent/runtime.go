package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quentin-h/embra/internal/actions"
	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/conversation"
	"github.com/quentin-h/embra/internal/dispatch"
	"github.com/quentin-h/embra/internal/events"
	"github.com/quentin-h/embra/internal/hooks"
	"github.com/quentin-h/embra/internal/models"
	"github.com/quentin-h/embra/internal/modes"
	"github.com/quentin-h/embra/internal/plugins"
	"github.com/quentin-h/embra/internal/runtime"
	"github.com/quentin-h/embra/internal/storage"
)

const defaultCycleTimeout = 30 * time.Second

// modeRuntime is everything instantiated for one active mode: the polled
// inputs, the cortex, the action executor, the promise queue, and the two
// plugin orchestrators.
type modeRuntime struct {
	modeName string
	mode     *config.ModeConfig

	inputs   []plugins.Input
	cortex   *models.Cortex
	executor *actions.Executor
	queue    *dispatch.Queue

	backgrounds *runtime.Orchestrator
	simulators  *runtime.Orchestrator
	hooks       *hooks.Runner

	conv   *conversation.Machine
	bus    *events.Bus
	engine *modes.Engine

	interactions *storage.InteractionLog

	cancel context.CancelFunc
	done   chan struct{}
}

// newModeRuntime instantiates a mode. Nothing is running yet; call start.
func (a *Agent) newModeRuntime(ctx context.Context, mode *config.ModeConfig) (*modeRuntime, error) {
	deps := plugins.Deps{
		Bus:          a.bus,
		Conversation: a.conv,
		APIKey:       a.cfg.APIKey,
		RobotIP:      a.cfg.RobotIP,
		URID:         a.cfg.URID,
	}
	if mode.RememberLocations {
		deps.Locations = a.locations
	}

	components, err := a.registry.BuildMode(mode, deps)
	if err != nil {
		return nil, fmt.Errorf("build mode %q: %w", mode.Name, err)
	}

	execMode, ok := actions.ParseExecutionMode(mode.ActionExecutionMode)
	if !ok {
		return nil, fmt.Errorf("mode %q: unknown action_execution_mode %q", mode.Name, mode.ActionExecutionMode)
	}
	executor, err := actions.NewExecutor(components.Connectors, execMode, mode.ActionDependencies)
	if err != nil {
		return nil, fmt.Errorf("mode %q executor: %w", mode.Name, err)
	}

	sims := make([]dispatch.Simulator, 0, len(components.Simulators))
	for _, s := range components.Simulators {
		sims = append(sims, s)
	}

	var cortex *models.Cortex
	if spec := mode.CortexLLM; spec != nil {
		chatModel, err := models.NewChatModel(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("mode %q cortex: %w", mode.Name, err)
		}
		cortex = models.NewCortex(chatModel, BuildSystemPrompt(a.cfg, mode))
	} else {
		slog.Warn("mode has no cortex_llm, running sensors only", "mode", mode.Name)
	}

	runner, err := a.buildHooks(mode)
	if err != nil {
		return nil, err
	}

	rt := &modeRuntime{
		modeName:    mode.Name,
		mode:        mode,
		inputs:      components.Inputs,
		cortex:      cortex,
		executor:    executor,
		queue:       dispatch.NewQueue(sims),
		backgrounds: runtime.NewOrchestrator("backgrounds"),
		simulators:  runtime.NewOrchestrator("simulators"),
		hooks:       runner,
		conv:        a.conv,
		bus:         a.bus,
		engine:      a.engine,
	}

	for _, bg := range components.Backgrounds {
		rt.backgrounds.Register(bg)
	}
	for _, sim := range components.Simulators {
		rt.simulators.Register(sim)
	}

	if mode.SaveInteractions && a.interactionsDir != "" {
		rt.interactions = storage.NewInteractionLog(a.interactionsDir, a.cfg.ConfigName, a.bus)
	}
	return rt, nil
}

// buildHooks instantiates the global hooks plus the mode's own.
func (a *Agent) buildHooks(mode *config.ModeConfig) (*hooks.Runner, error) {
	runner := hooks.NewRunner()
	deps := hooks.Deps{Bus: a.bus}

	specs := append(append([]config.HookSpec{}, a.cfg.GlobalHooks...), mode.Hooks...)
	for _, spec := range specs {
		h, err := a.hookReg.Build(spec.Type, spec.Config, deps)
		if err != nil {
			return nil, fmt.Errorf("mode %q hook: %w", mode.Name, err)
		}
		runner.Add(hooks.Trigger(spec.On), h)
	}
	return runner, nil
}

// start launches the orchestrators and the cortex loop.
func (rt *modeRuntime) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	rt.cancel = cancel
	rt.done = make(chan struct{})

	rt.backgrounds.Start()
	rt.simulators.Start()

	go rt.loop(ctx)
}

// stop tears the mode down in reverse order of start.
func (rt *modeRuntime) stop() {
	if rt.cancel != nil {
		rt.cancel()
	}
	<-rt.done

	rt.backgrounds.Stop()
	rt.simulators.Stop()

	if rt.interactions != nil {
		rt.interactions.Close()
	}

	if pending := rt.queue.PendingCount(); pending > 0 {
		slog.Warn("stopping with unresolved dispatches", "mode", rt.modeName, "pending", pending)
	}
}

// loop is the cortex cycle: poll, decide, execute, dispatch, at the mode's
// configured rate.
func (rt *modeRuntime) loop(ctx context.Context) {
	defer close(rt.done)

	ticker := time.NewTicker(rt.mode.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.cycle(ctx)
		}
	}
}

func (rt *modeRuntime) cycle(ctx context.Context) {
	fused := rt.pollInputs(ctx)
	if fused != "" && rt.engine != nil {
		rt.engine.ObserveInput(fused)
	}

	if rt.cortex != nil && fused != "" {
		rt.decide(ctx, fused)
	}

	rt.queue.Flush()

	if rt.engine != nil {
		snap := rt.conv.Snapshot()
		rt.engine.ObserveContext(map[string]any{
			"mode":               rt.modeName,
			"conversation_state": string(snap.State),
			"turns":              snap.Turns,
		})
	}
}

// pollInputs gathers one snapshot from every input and fuses the non-empty
// ones into the cortex context.
func (rt *modeRuntime) pollInputs(ctx context.Context) string {
	var parts []string
	for _, in := range rt.inputs {
		snapshot, err := in.Poll(ctx)
		if err != nil {
			slog.Error("input poll failed", "input", in.Name(), "error", err)
			continue
		}
		if snapshot != "" {
			parts = append(parts, fmt.Sprintf("[%s] %s", in.Name(), snapshot))
		}
	}
	return strings.Join(parts, "\n")
}

func (rt *modeRuntime) decide(ctx context.Context, fused string) {
	timeout := defaultCycleTimeout
	if rt.mode.TimeoutSeconds > 0 {
		timeout = time.Duration(rt.mode.TimeoutSeconds * float64(time.Second))
	}
	cycleCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	batch, err := rt.cortex.Decide(cycleCtx, fused)
	if err != nil {
		slog.Error("cortex decision failed", "mode", rt.modeName, "error", err)
		return
	}
	if len(batch) == 0 {
		return
	}

	rt.bus.Publish(events.New(events.EventActionDecided, events.SourceCortex, map[string]any{
		"mode":  rt.modeName,
		"count": len(batch),
	}))

	rt.executor.Execute(cycleCtx, batch)
	rt.queue.Promise(batch)

	if rt.conv.State() != conversation.StateFinished {
		turns := rt.conv.CompleteTurn()
		rt.bus.Publish(events.New(events.EventConversationTurn, events.SourceCortex, map[string]any{
			"mode":  rt.modeName,
			"turns": turns,
		}))
		if rt.conv.Snapshot().AtTurnLimit() {
			rt.conv.SetState(conversation.StateConcluding)
		}
	}
}
