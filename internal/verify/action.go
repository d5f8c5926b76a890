package verify

import "github.com/micro-ha/nuki-bridge/addon/internal/nuki"

// Kind selects how an action's effect is verified.
type Kind int

const (
	// KindState polls the state code against a goal set, tolerating the
	// family's transitional codes.
	KindState Kind = iota
	// KindMode polls the opener mode against a single target value. Mode
	// changes are atomic, so there is no transitional carve-out.
	KindMode
	// KindFireAndForget reports success on command acceptance alone. The
	// physical effect is momentary and not reliably observable afterwards.
	KindFireAndForget
)

// Action is one controllable operation: the wire code to send and the goal
// predicate that defines success. The set of actions is closed; handlers pick
// from the package-level definitions below.
type Action struct {
	ID         string
	Family     nuki.Family
	Code       int
	Kind       Kind
	Goal       []int
	TargetMode int
}

var (
	LockLock = Action{
		ID:     "lock.lock",
		Family: nuki.FamilyLock,
		Code:   nuki.LockActionLock,
		Kind:   KindState,
		Goal:   []int{nuki.LockStateLocked},
	}
	LockUnlock = Action{
		ID:     "lock.unlock",
		Family: nuki.FamilyLock,
		Code:   nuki.LockActionUnlock,
		Kind:   KindState,
		Goal:   []int{nuki.LockStateUnlocked},
	}
	// Unlatch settles back to unlocked once the latch pulse completes, so
	// both codes count as the goal.
	LockUnlatch = Action{
		ID:     "lock.unlatch",
		Family: nuki.FamilyLock,
		Code:   nuki.LockActionUnlatch,
		Kind:   KindState,
		Goal:   []int{nuki.LockStateUnlocked, nuki.LockStateUnlatched},
	}

	OpenerRTOActivate = Action{
		ID:     "opener.rto.activate",
		Family: nuki.FamilyOpener,
		Code:   nuki.OpenerActionRTOActivate,
		Kind:   KindState,
		Goal:   []int{nuki.OpenerStateRTOArmed, nuki.OpenerStateRTOActive},
	}
	OpenerRTODeactivate = Action{
		ID:     "opener.rto.deactivate",
		Family: nuki.FamilyOpener,
		Code:   nuki.OpenerActionRTODeactivate,
		Kind:   KindState,
		Goal:   []int{nuki.OpenerStateOnline},
	}

	OpenerContinuousActivate = Action{
		ID:         "opener.continuous.activate",
		Family:     nuki.FamilyOpener,
		Code:       nuki.OpenerActionContinuousActivate,
		Kind:       KindMode,
		TargetMode: nuki.OpenerModeContinuous,
	}
	OpenerContinuousDeactivate = Action{
		ID:         "opener.continuous.deactivate",
		Family:     nuki.FamilyOpener,
		Code:       nuki.OpenerActionContinuousDeactivate,
		Kind:       KindMode,
		TargetMode: nuki.OpenerModeDoor,
	}

	OpenerElectricStrike = Action{
		ID:     "opener.strike",
		Family: nuki.FamilyOpener,
		Code:   nuki.OpenerActionElectricStrike,
		Kind:   KindFireAndForget,
	}
)

// satisfied reports whether the snapshot already fulfills the action's goal
// predicate.
func (a Action) satisfied(snap nuki.Snapshot) bool {
	switch a.Kind {
	case KindState:
		return nuki.ClassifyState(a.Family, snap, a.Goal) == nuki.ClassGoal
	case KindMode:
		return nuki.ClassifyMode(snap, a.TargetMode) == nuki.ClassGoal
	default:
		return false
	}
}

// classify categorizes one poll sample for this action.
func (a Action) classify(snap nuki.Snapshot) nuki.Classification {
	if a.Kind == KindMode {
		return nuki.ClassifyMode(snap, a.TargetMode)
	}
	return nuki.ClassifyState(a.Family, snap, a.Goal)
}
