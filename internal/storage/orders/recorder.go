// Package orders persists the history of submitted orders: an
// append-only WAL journal plus a human-readable CSV file.
package orders

import (
	"github.com/pkg/errors"
	"github.com/vadiminshakov/krakendca/internal/domain"
)

// Recorder receives each submitted order exactly once.
type Recorder interface {
	Record(order domain.Order) error
}

// MultiRecorder fans a record out to several sinks. The first failure
// stops the fan-out and is returned.
type MultiRecorder []Recorder

// Record appends the order to every sink in turn.
func (m MultiRecorder) Record(order domain.Order) error {
	for _, r := range m {
		if err := r.Record(order); err != nil {
			return errors.Wrap(err, "failed to record order")
		}
	}

	return nil
}
