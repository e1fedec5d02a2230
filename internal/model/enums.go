package model

import (
	"fmt"
	"strings"
)

// Role classifies an asset. Keep these values stable; they are written to CSV output.
type Role string

const (
	RolePrimary        Role = "prim"
	RoleTransformation Role = "tfrm"
	RoleTransmission   Role = "trms"
	RoleStorage        Role = "stor"
)

// Roles lists every asset role in a fixed order.
var Roles = []Role{RolePrimary, RoleTransformation, RoleTransmission, RoleStorage}

func (r Role) Valid() bool {
	switch r {
	case RolePrimary, RoleTransformation, RoleTransmission, RoleStorage:
		return true
	}
	return false
}

// ParseRole accepts the short table codes as well as the long names.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prim", "primary":
		return RolePrimary, nil
	case "tfrm", "transformation":
		return RoleTransformation, nil
	case "trms", "transmission":
		return RoleTransmission, nil
	case "stor", "storage":
		return RoleStorage, nil
	}
	return "", fmt.Errorf("unknown asset role %q", s)
}

// Frequency is the granularity at which a carrier's balance is enforced.
type Frequency string

const (
	Hourly Frequency = "hourly"
	Weekly Frequency = "weekly"
	Yearly Frequency = "yearly"
)

var Frequencies = []Frequency{Hourly, Weekly, Yearly}

func (f Frequency) Valid() bool {
	switch f {
	case Hourly, Weekly, Yearly:
		return true
	}
	return false
}

func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hour", "hourly", "h":
		return Hourly, nil
	case "week", "weekly", "w":
		return Weekly, nil
	case "year", "yearly", "y":
		return Yearly, nil
	}
	return "", fmt.Errorf("unknown trading frequency %q", s)
}

// VarKind names a family of decision variables.
// The short codes match the column names used in result tables.
type VarKind string

const (
	VarCapacity       VarKind = "C"
	VarProduction     VarKind = "Ph"
	VarTransformation VarKind = "Th"
	VarExport         VarKind = "Xh"
	VarImport         VarKind = "Ih"
	VarCharge         VarKind = "Sh"
	VarDischarge      VarKind = "Dh"
	VarVolume         VarKind = "Vh"
	// VarFinal is not a decision variable; result tables use it for final consumption rows.
	VarFinal VarKind = "Fh"
)

// DispatchKinds returns the hourly variable families declared for assets of role r.
func DispatchKinds(r Role) []VarKind {
	switch r {
	case RolePrimary:
		return []VarKind{VarProduction}
	case RoleTransformation:
		return []VarKind{VarTransformation}
	case RoleTransmission:
		return []VarKind{VarExport, VarImport}
	case RoleStorage:
		return []VarKind{VarCharge, VarDischarge, VarVolume}
	}
	return nil
}
