package formulation

import (
	"errors"
	"fmt"
	"strings"

	"expansion-planner/internal/model"
)

// CarryOver decides which volume precedes the first hour of a week.
type CarryOver string

const (
	// CarryCyclic links the first hour of each week to the last hour of the same week.
	CarryCyclic CarryOver = "cyclic"
	// CarryForward links it to the last hour of the previous week; the first week
	// follows the last one.
	CarryForward CarryOver = "carry"
	// CarryReset starts each week from InitialVolumeFraction of the volume capacity.
	CarryReset CarryOver = "reset"
)

func ParseCarryOver(s string) (CarryOver, error) {
	switch c := CarryOver(strings.ToLower(strings.TrimSpace(s))); c {
	case CarryCyclic, CarryForward, CarryReset:
		return c, nil
	case "":
		return CarryCyclic, nil
	}
	return "", fmt.Errorf("unknown carry-over policy %q (want cyclic, carry or reset)", s)
}

// Options are the modelling choices that are not part of the data.
type Options struct {
	// PeriodHours is the real length of the period the week x hour grid stands for.
	PeriodHours float64
	// WeightObjective scales hourly costs by the representative-hour weight.
	WeightObjective bool

	CarryOver CarryOver
	// MinVolumeFraction is the lowest storage level as a fraction of available volume
	// capacity. 0 generates no constraint.
	MinVolumeFraction float64
	// InitialVolumeFraction is the starting level under CarryReset.
	InitialVolumeFraction float64
	// StepHours is the duration of one representative hour in the storage recurrence.
	StepHours float64
}

func DefaultOptions() Options {
	return Options{
		PeriodHours:     model.HoursPerYear,
		WeightObjective: true,
		CarryOver:       CarryCyclic,
		StepHours:       1,
	}
}

func (o Options) Validate() error {
	if o.PeriodHours <= 0 {
		return errors.New("period_hours must be > 0")
	}
	if _, err := ParseCarryOver(string(o.CarryOver)); err != nil {
		return err
	}
	if o.MinVolumeFraction < 0 || o.MinVolumeFraction > 1 {
		return errors.New("min_volume_fraction must be in [0, 1]")
	}
	if o.InitialVolumeFraction < 0 || o.InitialVolumeFraction > 1 {
		return errors.New("initial_volume_fraction must be in [0, 1]")
	}
	if o.StepHours <= 0 {
		return errors.New("step_hours must be > 0")
	}
	return nil
}
