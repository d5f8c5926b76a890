package nuki

// Family identifies a controllable device family. Its value doubles as the
// Web API resource path segment.
type Family string

const (
	FamilyLock   Family = "smartlock"
	FamilyOpener Family = "opener"
)

// Device type codes reported by the Web API `type` field.
const (
	DeviceTypeSmartlock  = 0
	DeviceTypeOpener     = 2
	DeviceTypeSmartlock4 = 4
)

// FamilyForDeviceType maps the Web API device type code to a Family.
func FamilyForDeviceType(deviceType int) (Family, bool) {
	switch deviceType {
	case DeviceTypeSmartlock, DeviceTypeSmartlock4:
		return FamilyLock, true
	case DeviceTypeOpener:
		return FamilyOpener, true
	default:
		return "", false
	}
}

// Snapshot is one immutable observation of device state. Each state query
// produces a new Snapshot; a prior Snapshot is never mutated.
//
// Online is false when the query did not yield a valid numeric state code
// (missing or malformed body). An offline Snapshot carries no usable State,
// Mode or DeviceType.
type Snapshot struct {
	Name            string
	DeviceType      int
	State           int
	Mode            int
	BatteryCritical bool
	Online          bool
}

// Lock family state codes.
const (
	LockStateUncalibrated = 0
	LockStateLocked       = 1
	LockStateUnlocking    = 2
	LockStateUnlocked     = 3
	LockStateLocking      = 4
	LockStateUnlatched    = 5
	LockStateUnlockedLnGo = 6
	LockStateUnlatching   = 7
	LockStateMotorBlocked = 254
	LockStateUndefined    = 255
)

// Opener family state codes.
const (
	OpenerStateUntrained = 0
	OpenerStateOnline    = 1
	OpenerStateRTOArmed  = 2
	OpenerStateRTOActive = 3
	OpenerStateOpen      = 5
	OpenerStateOpening   = 6
	OpenerStateClosing   = 7
	OpenerStateUndefined = 255
)

// Opener operation modes.
const (
	OpenerModeDoor       = 2
	OpenerModeContinuous = 3
)

// Lock family action codes (POST body value).
const (
	LockActionUnlock  = 1
	LockActionLock    = 2
	LockActionUnlatch = 3
)

// Opener family action codes (POST body value).
const (
	OpenerActionRTOActivate          = 1
	OpenerActionRTODeactivate        = 2
	OpenerActionElectricStrike       = 3
	OpenerActionContinuousActivate   = 4
	OpenerActionContinuousDeactivate = 5
)

var lockStateNames = map[int]string{
	LockStateUncalibrated: "uncalibrated",
	LockStateLocked:       "locked",
	LockStateUnlocking:    "unlocking",
	LockStateUnlocked:     "unlocked",
	LockStateLocking:      "locking",
	LockStateUnlatched:    "unlatched",
	LockStateUnlockedLnGo: "unlocked (lock'n'go)",
	LockStateUnlatching:   "unlatching",
	LockStateMotorBlocked: "motor blocked",
	LockStateUndefined:    "undefined",
}

var openerStateNames = map[int]string{
	OpenerStateUntrained: "untrained",
	OpenerStateOnline:    "online",
	OpenerStateRTOArmed:  "ring to open armed",
	OpenerStateRTOActive: "ring to open active",
	OpenerStateOpen:      "open",
	OpenerStateOpening:   "opening",
	OpenerStateClosing:   "closing",
	OpenerStateUndefined: "undefined",
}

var openerModeNames = map[int]string{
	OpenerModeDoor:       "door mode",
	OpenerModeContinuous: "continuous mode",
}

// StateName returns a human-readable name for a state code, or "unknown".
func StateName(family Family, state int) string {
	var name string
	switch family {
	case FamilyLock:
		name = lockStateNames[state]
	case FamilyOpener:
		name = openerStateNames[state]
	}
	if name == "" {
		return "unknown"
	}
	return name
}

// ModeName returns a human-readable name for an opener mode code, or "unknown".
func ModeName(mode int) string {
	if name, ok := openerModeNames[mode]; ok {
		return name
	}
	return "unknown"
}
