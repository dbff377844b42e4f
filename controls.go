package digicam

import (
	"cmp"
	"fmt"
)

// Control represents an editable parameter, typically a slider.
// When Value is modified via ChangeValue the bound parameter updates immediately.
type Control interface {
	// Display/human readable name and description.
	Describe() (name, description string)
	// ActualValue returns the current value of the control.
	ActualValue() any
	// ChangeValue attempts to update the ActualValue to newValue.
	// Out of range values are clamped, only a mismatched type is an error.
	ChangeValue(newValue any) error
}

type ControlOrdered[T cmp.Ordered] struct {
	Name        string
	Description string
	Value       T
	Min         T
	Max         T
	Step        T
	// Clamp overrides the default [Min,Max] clamp, for example to wrap angles.
	Clamp    func(T) T
	OnChange func(T) error
}

func (co *ControlOrdered[T]) Describe() (name, description string) {
	return co.Name, co.Description
}

func (co *ControlOrdered[T]) ActualValue() any { return co.Value }

func (co *ControlOrdered[T]) ChangeValue(newValue any) error {
	v, ok := newValue.(T)
	if !ok {
		return fmt.Errorf("new value %T not of type %T", newValue, co.Value)
	}
	if co.Clamp != nil {
		v = co.Clamp(v)
	} else {
		v = max(co.Min, min(co.Max, v))
	}
	if co.OnChange != nil {
		if err := co.OnChange(v); err != nil {
			return err
		}
	}
	co.Value = v
	return nil
}
