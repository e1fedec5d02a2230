package backtest

import "expansion-planner/internal/model"

// Action labels what a storage asset did in one slot.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionDischarging Action = "DISCHARGING"
	ActionIdle        Action = "IDLE"
	// ActionBoth marks simultaneous charge and discharge in one slot.
	ActionBoth Action = "BOTH"
)

// ActionFromFlows classifies a slot; flows at or below tol count as zero.
func ActionFromFlows(charge, discharge, tol float64) Action {
	c, d := charge > tol, discharge > tol
	switch {
	case c && d:
		return ActionBoth
	case c:
		return ActionCharging
	case d:
		return ActionDischarging
	}
	return ActionIdle
}

// LedgerRow is one slot of one storage asset, replayed from the solved charge and
// discharge levels.
type LedgerRow struct {
	Index  int    `json:"index"`
	Asset  string `json:"asset"`
	Region string `json:"region"`
	Week   string `json:"week"`
	Hour   string `json:"hour"`

	Action Action `json:"action"`

	Charge    float64 `json:"charge"`
	Discharge float64 `json:"discharge"`
	// Stored and Released are the volume changes of the slot after efficiencies.
	Stored   float64 `json:"stored"`
	Released float64 `json:"released"`
	Losses   float64 `json:"losses"`

	VolumeStart float64 `json:"volume_start"`
	VolumeEnd   float64 `json:"volume_end"`
	// SolvedVolume is the solver's volume for the slot; Drift = VolumeEnd - SolvedVolume.
	SolvedVolume float64 `json:"solved_volume"`
	Drift        float64 `json:"drift"`

	CumLosses float64 `json:"cum_losses"`
}

// AssetSummary aggregates the ledger of one storage asset over the representative slots.
type AssetSummary struct {
	Asset    string     `json:"asset"`
	Role     model.Role `json:"role"`
	Region   string     `json:"region"`
	Capacity float64    `json:"capacity"`

	Charged    float64 `json:"charged"`
	Discharged float64 `json:"discharged"`
	Losses     float64 `json:"losses"`
	// Cycles is discharged energy over capacity; 0 without capacity.
	Cycles float64 `json:"cycles"`

	MinVolume float64 `json:"min_volume"`
	MaxVolume float64 `json:"max_volume"`
	MaxDrift  float64 `json:"max_drift"`
	// Violations counts slots whose replayed volume leaves [0, Capacity].
	Violations int `json:"violations"`
}

type Result struct {
	Ledger   []LedgerRow    `json:"ledger"`
	Assets   []AssetSummary `json:"assets"`
	MaxDrift float64        `json:"max_drift"`
}
