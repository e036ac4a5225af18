package media

import "fmt"

// IntConstraint follows the browser exact/ideal/min/max pattern. Use
// ExactInt, IdealInt or RangeInt to build one.
type IntConstraint struct {
	Exact *int
	Ideal *int
	Min   *int
	Max   *int
}

// Value is the value to request from the device: exact, then ideal, then
// min.
func (c IntConstraint) Value() (int, bool) {
	switch {
	case c.Exact != nil:
		return *c.Exact, true
	case c.Ideal != nil:
		return *c.Ideal, true
	case c.Min != nil:
		return *c.Min, true
	}
	return 0, false
}

// check reports an OverconstrainedError when the device setting v breaks
// an exact or range requirement. Ideal values never fail.
func (c IntConstraint) check(name string, v int) error {
	switch {
	case c.Exact != nil && v != *c.Exact:
		return &OverconstrainedError{Constraint: name, Message: fmt.Sprintf("requires exact %d, got %d", *c.Exact, v)}
	case c.Min != nil && v < *c.Min:
		return &OverconstrainedError{Constraint: name, Message: fmt.Sprintf("minimum is %d, got %d", *c.Min, v)}
	case c.Max != nil && v > *c.Max:
		return &OverconstrainedError{Constraint: name, Message: fmt.Sprintf("maximum is %d, got %d", *c.Max, v)}
	}
	return nil
}

func (c IntConstraint) valid() bool {
	for _, p := range []*int{c.Exact, c.Ideal, c.Min, c.Max} {
		if p != nil && *p < 0 {
			return false
		}
	}
	return c.Min == nil || c.Max == nil || *c.Min <= *c.Max
}

// FloatConstraint is IntConstraint for frame rates.
type FloatConstraint struct {
	Exact *float64
	Ideal *float64
	Min   *float64
	Max   *float64
}

func (c FloatConstraint) Value() (float64, bool) {
	switch {
	case c.Exact != nil:
		return *c.Exact, true
	case c.Ideal != nil:
		return *c.Ideal, true
	case c.Min != nil:
		return *c.Min, true
	}
	return 0, false
}

func (c FloatConstraint) check(name string, v float64) error {
	switch {
	case c.Exact != nil && v != *c.Exact:
		return &OverconstrainedError{Constraint: name, Message: fmt.Sprintf("requires exact %g, got %g", *c.Exact, v)}
	case c.Min != nil && v < *c.Min:
		return &OverconstrainedError{Constraint: name, Message: fmt.Sprintf("minimum is %g, got %g", *c.Min, v)}
	case c.Max != nil && v > *c.Max:
		return &OverconstrainedError{Constraint: name, Message: fmt.Sprintf("maximum is %g, got %g", *c.Max, v)}
	}
	return nil
}

func (c FloatConstraint) valid() bool {
	for _, p := range []*float64{c.Exact, c.Ideal, c.Min, c.Max} {
		if p != nil && *p < 0 {
			return false
		}
	}
	return c.Min == nil || c.Max == nil || *c.Min <= *c.Max
}

// OverconstrainedError reports a device setting that cannot satisfy a
// required constraint.
type OverconstrainedError struct {
	Constraint string
	Message    string
}

func (e *OverconstrainedError) Error() string {
	return fmt.Sprintf("overconstrained: %s - %s", e.Constraint, e.Message)
}

func ExactInt(v int) IntConstraint { return IntConstraint{Exact: &v} }

func IdealInt(v int) IntConstraint { return IntConstraint{Ideal: &v} }

func RangeInt(minVal, maxVal int) IntConstraint {
	return IntConstraint{Min: &minVal, Max: &maxVal}
}

func ExactFloat(v float64) FloatConstraint { return FloatConstraint{Exact: &v} }

func IdealFloat(v float64) FloatConstraint { return FloatConstraint{Ideal: &v} }

func RangeFloat(minVal, maxVal float64) FloatConstraint {
	return FloatConstraint{Min: &minVal, Max: &maxVal}
}
