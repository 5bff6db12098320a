package pricing

import (
	"errors"

	"go.uber.org/multierr"
)

// Dimension limits in centimeters, both inclusive.
const (
	MinDimension = 30
	MaxDimension = 300
)

const (
	msgWidthRange  = "width out of range"
	msgHeightRange = "height out of range"
	msgNotPositive = "dimensions must be positive"
)

// Validation is the outcome of a dimension check.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateDimensions checks width and height independently and reports every
// rule they break, in a fixed order.
func ValidateDimensions(width, height float64) Validation {
	errs := make([]string, 0, 3)

	if !inRange(width) {
		errs = append(errs, msgWidthRange)
	}
	if !inRange(height) {
		errs = append(errs, msgHeightRange)
	}
	if width <= 0 || height <= 0 {
		errs = append(errs, msgNotPositive)
	}

	return Validation{Valid: len(errs) == 0, Errors: errs}
}

// written so that NaN is out of range
func inRange(v float64) bool {
	return v >= MinDimension && v <= MaxDimension
}

// Err combines the messages into one error, or returns nil when valid.
func (v Validation) Err() error {
	var err error
	for _, msg := range v.Errors {
		err = multierr.Append(err, errors.New(msg))
	}
	return err
}
