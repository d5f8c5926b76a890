package httpapi

import (
	"time"

	"github.com/micro-ha/nuki-bridge/addon/internal/i18n"
	"github.com/micro-ha/nuki-bridge/addon/internal/nuki"
	"github.com/micro-ha/nuki-bridge/addon/internal/verify"
)

// ActionResponse is the external shape of one Verification Outcome.
//
// Attempts preserves the engine's poll counter: 0 for "already satisfied" and
// "rejected before polling", N for "achieved/settled after N polls". The
// message key tells those zero-attempt cases apart.
type ActionResponse struct {
	Success         bool      `json:"success"`
	Action          string    `json:"action"`
	Outcome         string    `json:"outcome"`
	MessageKey      string    `json:"message_key"`
	Message         string    `json:"message"`
	State           *int      `json:"state,omitempty"`
	StateName       string    `json:"state_name,omitempty"`
	Mode            *int      `json:"mode,omitempty"`
	ModeName        string    `json:"mode_name,omitempty"`
	BatteryCritical *bool     `json:"battery_critical,omitempty"`
	Attempts        int       `json:"attempts"`
	Timestamp       time.Time `json:"timestamp"`
}

func formatOutcome(out verify.Outcome, catalog *i18n.Catalog, now time.Time) ActionResponse {
	resp := ActionResponse{
		Success:    out.Success(),
		Action:     out.Action.ID,
		Outcome:    out.Kind.String(),
		MessageKey: out.MessageKey,
		Message:    catalog.Get(out.MessageKey),
		Attempts:   out.PollAttempts,
		Timestamp:  now.UTC(),
	}
	if snap := out.Snapshot; snap != nil && snap.Online {
		state := snap.State
		resp.State = &state
		resp.StateName = nuki.StateName(out.Action.Family, snap.State)
		if out.Action.Family == nuki.FamilyOpener {
			mode := snap.Mode
			resp.Mode = &mode
			resp.ModeName = nuki.ModeName(snap.Mode)
		}
		battery := snap.BatteryCritical
		resp.BatteryCritical = &battery
	}
	return resp
}

// StateResponse is the external shape of one Snapshot.
type StateResponse struct {
	Name            string    `json:"name,omitempty"`
	Online          bool      `json:"online"`
	State           *int      `json:"state,omitempty"`
	StateName       string    `json:"state_name,omitempty"`
	Mode            *int      `json:"mode,omitempty"`
	ModeName        string    `json:"mode_name,omitempty"`
	BatteryCritical *bool     `json:"battery_critical,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

func formatSnapshot(family nuki.Family, snap *nuki.Snapshot, now time.Time) StateResponse {
	resp := StateResponse{Timestamp: now.UTC()}
	if snap == nil {
		return resp
	}
	resp.Name = snap.Name
	resp.Online = snap.Online
	if !snap.Online {
		return resp
	}
	state := snap.State
	resp.State = &state
	resp.StateName = nuki.StateName(family, snap.State)
	if family == nuki.FamilyOpener {
		mode := snap.Mode
		resp.Mode = &mode
		resp.ModeName = nuki.ModeName(snap.Mode)
	}
	battery := snap.BatteryCritical
	resp.BatteryCritical = &battery
	return resp
}
