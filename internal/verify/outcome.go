package verify

import (
	"errors"

	"github.com/micro-ha/nuki-bridge/addon/internal/nuki"
)

// OutcomeKind tags the terminal result of one verification run.
type OutcomeKind int

const (
	// OutcomeAlreadySatisfied means the goal was true before any command was
	// sent; the engine issued zero commands.
	OutcomeAlreadySatisfied OutcomeKind = iota
	// OutcomeSucceeded means the goal became true within the attempt budget.
	OutcomeSucceeded
	// OutcomeFailedTerminal means the device settled in a state that does not
	// satisfy the goal, or reported a blocking error.
	OutcomeFailedTerminal
	// OutcomeFailedUnreachable means the device never reported a valid state
	// across all poll attempts.
	OutcomeFailedUnreachable
	// OutcomeCommandRejected means the run terminated before any polling:
	// missing configuration, family mismatch, or command transmission failure.
	OutcomeCommandRejected
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAlreadySatisfied:
		return "already-satisfied"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailedTerminal:
		return "failed-terminal"
	case OutcomeFailedUnreachable:
		return "failed-unreachable"
	case OutcomeCommandRejected:
		return "command-rejected"
	default:
		return "unknown"
	}
}

// Message catalog keys the engine attaches to outcomes. The catalog maps
// them to localized text; the engine never produces literal messages.
const (
	MsgAlreadySatisfied   = "already-satisfied"
	MsgGoalReached        = "goal-reached"
	MsgGoalNotReached     = "goal-not-reached"
	MsgDeviceUnreachable  = "device-unreachable"
	MsgMotorBlocked       = "motor-blocked"
	MsgCommandRejected    = "command-rejected"
	MsgDeviceTypeMismatch = "device-type-mismatch"
	MsgConfigMissing      = "config-missing"
	MsgStrikePulsed       = "strike-pulsed"
	MsgCancelled          = "verify-cancelled"
)

// Sentinel failure causes carried in Outcome.Err.
var (
	ErrDeviceTypeMismatch = errors.New("device family does not match the requested action")
	ErrMotorBlocked       = errors.New("device reported a blocked motor")
	ErrGoalNotReached     = errors.New("device settled without reaching the goal state")
	ErrDeviceUnreachable  = errors.New("device never reported a valid state")
	ErrConfigMissing      = errors.New("required configuration value is missing")
)

// Outcome is the single structured result of one Action Request. Exactly one
// Outcome is produced per run; there are no partial results.
//
// PollAttempts counts every state sample taken after the command was sent.
// It is 0 for AlreadySatisfied and CommandRejected.
type Outcome struct {
	Kind         OutcomeKind
	Action       Action
	Snapshot     *nuki.Snapshot
	PollAttempts int
	MessageKey   string
	Err          error
}

// Success reports whether the caller's intent was fulfilled.
func (o Outcome) Success() bool {
	return o.Kind == OutcomeAlreadySatisfied || o.Kind == OutcomeSucceeded
}
