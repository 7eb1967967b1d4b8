package orders

import (
	"encoding/csv"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/krakendca/internal/domain"
)

// csvHeader is the order-history schema: one row per submitted order,
// append-only.
var csvHeader = []string{
	"date", "pair", "type", "ordertype", "oflags",
	"limit_price", "volume", "estimated_cost", "estimated_fee", "total_cost",
	"txid", "description",
}

// CSVStore appends submitted orders to a CSV file, writing the header
// when it creates the file.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore returns a store writing to path. The file is created on
// the first order.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Record appends one row for the order.
func (s *CSVStore) Record(order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open order history %s", s.path)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat order history %s", s.path)
	}

	w := csv.NewWriter(f)
	if stat.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return errors.Wrap(err, "write order history header")
		}
	}

	row := []string{
		order.Timestamp.UTC().Format(time.RFC3339),
		order.Pair,
		order.Side,
		order.OrderType,
		order.Flags,
		order.LimitPrice.String(),
		order.Volume.String(),
		order.EstimatedCost.String(),
		order.EstimatedFee.String(),
		order.TotalCost.String(),
		order.TxID,
		order.Description,
	}
	if err := w.Write(row); err != nil {
		return errors.Wrap(err, "write order history row")
	}

	w.Flush()

	return errors.Wrap(w.Error(), "flush order history")
}
