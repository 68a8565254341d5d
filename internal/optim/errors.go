package optim

import "github.com/pkg/errors"

// ErrInvalidPopulationSize is returned when an optimizer is constructed
// with too few individuals for its operators.
var ErrInvalidPopulationSize = errors.New("invalid population size")
