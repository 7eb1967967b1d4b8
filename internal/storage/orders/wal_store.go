package orders

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/krakendca/internal/domain"
)

const (
	// DefaultDir is where the order journal lives unless overridden.
	DefaultDir = "./wal/orders"

	segmentThreshold = 1000
	maxSegments      = 100

	orderKeyPrefix = "order_"
)

// WALStore journals every submitted order in an append-only WAL so the
// local record survives crashes between submission and CSV write.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.Mutex
}

// NewWALStore initializes a WAL-backed order journal in dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "log_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init order journal WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Record appends the order to the journal.
func (s *WALStore) Record(order domain.Order) error {
	if s == nil || s.wal == nil {
		return errors.New("order journal is not initialized")
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return errors.Wrap(err, "marshal order")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, orderKeyPrefix+order.Pair, payload)
}

// Orders replays the journal and returns every recorded order in
// append order.
func (s *WALStore) Orders() ([]domain.Order, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("order journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []domain.Order
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, orderKeyPrefix) {
			continue
		}

		var order domain.Order
		if err := json.Unmarshal(msg.Value, &order); err != nil {
			return nil, errors.Wrap(err, "decode order record")
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
