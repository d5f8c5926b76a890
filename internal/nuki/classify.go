package nuki

// Classification is the semantic category of one Snapshot sample relative to
// a goal predicate.
type Classification int

const (
	// ClassGoal means the sample satisfies the goal predicate.
	ClassGoal Classification = iota
	// ClassTransitional means normal in-progress mechanical motion; never
	// counted as a failure.
	ClassTransitional
	// ClassBlockingError means a hard device fault that will not self-resolve.
	ClassBlockingError
	// ClassOtherTerminal means a settled state that does not satisfy the goal.
	ClassOtherTerminal
	// ClassOffline means the sample carries no valid state code.
	ClassOffline
)

func (c Classification) String() string {
	switch c {
	case ClassGoal:
		return "goal"
	case ClassTransitional:
		return "transitional"
	case ClassBlockingError:
		return "blocking-error"
	case ClassOtherTerminal:
		return "other-terminal"
	case ClassOffline:
		return "offline"
	default:
		return "unknown"
	}
}

var lockTransitional = map[int]bool{
	LockStateUnlocking:  true,
	LockStateLocking:    true,
	LockStateUnlatching: true,
}

var openerTransitional = map[int]bool{
	OpenerStateOpening: true,
	OpenerStateClosing: true,
}

var lockBlocking = map[int]bool{
	LockStateMotorBlocked: true,
}

// ClassifyState categorizes one Snapshot against a goal predicate over the
// state code, using the family's transitional and blocking tables.
func ClassifyState(family Family, snap Snapshot, goal []int) Classification {
	if !snap.Online {
		return ClassOffline
	}
	for _, code := range goal {
		if snap.State == code {
			return ClassGoal
		}
	}
	switch family {
	case FamilyLock:
		if lockBlocking[snap.State] {
			return ClassBlockingError
		}
		if lockTransitional[snap.State] {
			return ClassTransitional
		}
	case FamilyOpener:
		if openerTransitional[snap.State] {
			return ClassTransitional
		}
	}
	return ClassOtherTerminal
}

// ClassifyMode categorizes one Snapshot against a target opener mode. Mode
// changes are treated as atomic: there is no transitional carve-out, any
// non-goal sample is a settled miss.
func ClassifyMode(snap Snapshot, targetMode int) Classification {
	if !snap.Online {
		return ClassOffline
	}
	if snap.Mode == targetMode {
		return ClassGoal
	}
	return ClassOtherTerminal
}
