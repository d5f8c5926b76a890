package verify

import (
	"context"
	"log/slog"

	"github.com/micro-ha/nuki-bridge/addon/internal/model"
	"github.com/micro-ha/nuki-bridge/addon/internal/nuki"
	"github.com/micro-ha/nuki-bridge/addon/internal/retry"
)

// HardPollCeiling is the absolute bound on samples per run, independent of
// the failure budget. It keeps a device oscillating through transitional
// states from holding the caller forever.
const HardPollCeiling = 10

// DeviceClient is the slice of the Nuki API client the engine needs.
type DeviceClient interface {
	SendAction(ctx context.Context, cfg model.BridgeConfig, family nuki.Family, deviceID string, action int) error
	FetchSnapshot(ctx context.Context, cfg model.BridgeConfig, family nuki.Family, deviceID string) (*nuki.Snapshot, error)
}

// Engine converts the API's fire-and-forget command acknowledgment into a
// trustworthy result: it skips redundant commands, sends the command once,
// then polls device state until the goal is reached or the budget runs out.
//
// The engine is stateless between runs; every run owns its own counters and
// snapshots. Concurrent runs for the same device race at the physical device,
// the engine does not serialize them.
type Engine struct {
	client        DeviceClient
	policy        retry.Policy
	failureBudget int
	pollCeiling   int
	sleep         retry.Sleeper
	logger        *slog.Logger
}

func New(client DeviceClient, logger *slog.Logger) *Engine {
	return &Engine{
		client:        client,
		policy:        retry.DefaultPolicy(),
		failureBudget: retry.DefaultMaxRetries,
		pollCeiling:   HardPollCeiling,
		sleep:         retry.Sleep,
		logger:        logger,
	}
}

// Run executes one Action Request end to end and returns exactly one Outcome.
func (e *Engine) Run(ctx context.Context, cfg model.BridgeConfig, deviceID string, act Action) Outcome {
	pre, rejected := e.precheck(ctx, cfg, deviceID, act)
	if rejected != nil {
		return *rejected
	}
	return e.run(ctx, cfg, deviceID, act, pre)
}

// Toggle reads current state once and delegates wholesale to the activate or
// deactivate flow, depending on which side of the goal predicate the device
// is on. The poll loop is not duplicated.
func (e *Engine) Toggle(ctx context.Context, cfg model.BridgeConfig, deviceID string, activate, deactivate Action) Outcome {
	pre, rejected := e.precheck(ctx, cfg, deviceID, activate)
	if rejected != nil {
		return *rejected
	}
	act := activate
	if activate.satisfied(*pre) {
		act = deactivate
	}
	return e.run(ctx, cfg, deviceID, act, pre)
}

// precheck takes the initial Snapshot and rejects the request when the query
// fails or the device family does not match the action.
func (e *Engine) precheck(ctx context.Context, cfg model.BridgeConfig, deviceID string, act Action) (*nuki.Snapshot, *Outcome) {
	pre, err := e.client.FetchSnapshot(ctx, cfg, act.Family, deviceID)
	if err != nil {
		out := e.terminal(act, Outcome{
			Kind:       OutcomeCommandRejected,
			MessageKey: MsgCommandRejected,
			Err:        err,
		})
		return nil, &out
	}
	if pre.Online {
		if family, known := nuki.FamilyForDeviceType(pre.DeviceType); known && family != act.Family {
			out := e.terminal(act, Outcome{
				Kind:       OutcomeCommandRejected,
				Snapshot:   pre,
				MessageKey: MsgDeviceTypeMismatch,
				Err:        ErrDeviceTypeMismatch,
			})
			return nil, &out
		}
	}
	return pre, nil
}

func (e *Engine) run(ctx context.Context, cfg model.BridgeConfig, deviceID string, act Action, pre *nuki.Snapshot) Outcome {
	// Never send a redundant command: re-driving an already satisfied device
	// risks toggling past the goal and burns API quota.
	if act.Kind != KindFireAndForget && act.satisfied(*pre) {
		return e.terminal(act, Outcome{
			Kind:       OutcomeAlreadySatisfied,
			Snapshot:   pre,
			MessageKey: MsgAlreadySatisfied,
		})
	}

	e.logDebug("sending command", "action", act.ID, "device", deviceID, "code", act.Code)
	if err := e.client.SendAction(ctx, cfg, act.Family, deviceID, act.Code); err != nil {
		return e.terminal(act, Outcome{
			Kind:       OutcomeCommandRejected,
			Snapshot:   pre,
			MessageKey: MsgCommandRejected,
			Err:        err,
		})
	}

	// The strike pulse is momentary; post-action states are not reliably
	// observable, so acceptance is the best available answer.
	if act.Kind == KindFireAndForget {
		return e.terminal(act, Outcome{
			Kind:       OutcomeSucceeded,
			Snapshot:   pre,
			MessageKey: MsgStrikePulsed,
		})
	}

	return e.poll(ctx, cfg, deviceID, act)
}

// poll samples device state until the goal is reached, a blocking error is
// observed, the failure budget is spent, or the hard ceiling trips.
//
// Two counters: pollAttempts counts every sample taken; failures counts only
// non-transitional unsatisfactory samples. Transitional samples keep the loop
// going for free so slow door motors are not penalized as failures.
func (e *Engine) poll(ctx context.Context, cfg model.BridgeConfig, deviceID string, act Action) Outcome {
	var (
		pollAttempts int
		failures     int
		last         *nuki.Snapshot
		sawValid     bool
	)

	for failures <= e.failureBudget && pollAttempts < e.pollCeiling {
		if err := e.sleep(ctx, e.policy.DelayForAttempt(failures)); err != nil {
			out := e.exhausted(last, pollAttempts, sawValid)
			out.MessageKey = MsgCancelled
			out.Err = err
			return e.terminal(act, out)
		}

		snap, err := e.client.FetchSnapshot(ctx, cfg, act.Family, deviceID)
		pollAttempts++

		class := nuki.ClassOffline
		if err == nil {
			last = snap
			if snap.Online {
				sawValid = true
			}
			class = act.classify(*snap)
		}
		e.logDebug("poll sample", "action", act.ID, "device", deviceID, "attempt", pollAttempts, "class", class.String())

		switch class {
		case nuki.ClassGoal:
			return e.terminal(act, Outcome{
				Kind:         OutcomeSucceeded,
				Snapshot:     snap,
				PollAttempts: pollAttempts,
				MessageKey:   MsgGoalReached,
			})
		case nuki.ClassBlockingError:
			// A blocked motor will not self-clear; remaining budget is moot.
			return e.terminal(act, Outcome{
				Kind:         OutcomeFailedTerminal,
				Snapshot:     snap,
				PollAttempts: pollAttempts,
				MessageKey:   MsgMotorBlocked,
				Err:          ErrMotorBlocked,
			})
		case nuki.ClassTransitional:
			// In-progress motion does not consume the failure budget.
		default:
			failures++
		}
	}

	return e.terminal(act, e.exhausted(last, pollAttempts, sawValid))
}

func (e *Engine) exhausted(last *nuki.Snapshot, pollAttempts int, sawValid bool) Outcome {
	if !sawValid {
		return Outcome{
			Kind:         OutcomeFailedUnreachable,
			PollAttempts: pollAttempts,
			MessageKey:   MsgDeviceUnreachable,
			Err:          ErrDeviceUnreachable,
		}
	}
	return Outcome{
		Kind:         OutcomeFailedTerminal,
		Snapshot:     last,
		PollAttempts: pollAttempts,
		MessageKey:   MsgGoalNotReached,
		Err:          ErrGoalNotReached,
	}
}

func (e *Engine) terminal(act Action, out Outcome) Outcome {
	out.Action = act
	if e.logger != nil {
		e.logger.Info("verification finished",
			"action", act.ID,
			"outcome", out.Kind.String(),
			"attempts", out.PollAttempts,
			"message_key", out.MessageKey,
		)
	}
	return out
}

func (e *Engine) logDebug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
