package snowflake

import (
	"errors"
	"sync"
	"time"
)

const (
	// Epoch is the custom epoch (January 1, 2024 00:00:00 UTC) in milliseconds
	Epoch int64 = 1704067200000

	// Classic layout: 41 timestamp + 5 datacenter + 5 worker + 12 sequence = 63 bits
	DatacenterIDBits uint8 = 5
	WorkerIDBits     uint8 = 5
	SequenceBits     uint8 = 12
)

var (
	ErrInvalidWorkerID     = errors.New("worker ID exceeds maximum value")
	ErrInvalidDatacenterID = errors.New("datacenter ID exceeds maximum value")
	ErrClockMovedBackwards = errors.New("clock moved backwards")
)

const (
	maxDatacenterID = -1 ^ (-1 << DatacenterIDBits)
	maxWorkerID     = -1 ^ (-1 << WorkerIDBits)
	sequenceMask    = -1 ^ (-1 << SequenceBits)

	workerIDShift     = SequenceBits
	datacenterIDShift = SequenceBits + WorkerIDBits
	timestampShift    = SequenceBits + WorkerIDBits + DatacenterIDBits
)

// Generator produces unique message IDs using the Snowflake layout.
// IDs from the same generator are strictly increasing, and generators
// with distinct datacenter/worker pairs never collide.
type Generator struct {
	mu sync.Mutex

	datacenterID int64
	workerID     int64

	sequence      int64
	lastTimestamp int64
}

// NewGenerator creates a generator for the given datacenter and worker IDs
func NewGenerator(datacenterID, workerID int64) (*Generator, error) {
	if datacenterID < 0 || datacenterID > maxDatacenterID {
		return nil, ErrInvalidDatacenterID
	}
	if workerID < 0 || workerID > maxWorkerID {
		return nil, ErrInvalidWorkerID
	}
	return &Generator{
		datacenterID: datacenterID,
		workerID:     workerID,
	}, nil
}

// NextID generates the next unique ID
func (g *Generator) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	timestamp := currentTimestamp()
	if timestamp < g.lastTimestamp {
		return 0, ErrClockMovedBackwards
	}

	if timestamp == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & sequenceMask
		if g.sequence == 0 {
			// Sequence exhausted within this millisecond
			timestamp = waitNextMillis(g.lastTimestamp)
		}
	} else {
		g.sequence = 0
	}

	g.lastTimestamp = timestamp

	id := ((timestamp - Epoch) << timestampShift) |
		(g.datacenterID << datacenterIDShift) |
		(g.workerID << workerIDShift) |
		g.sequence

	return id, nil
}

// Parse extracts the components encoded in an ID
func Parse(id int64) (timestamp, datacenterID, workerID, sequence int64) {
	sequence = id & sequenceMask
	workerID = (id >> workerIDShift) & maxWorkerID
	datacenterID = (id >> datacenterIDShift) & maxDatacenterID
	timestamp = (id >> timestampShift) + Epoch
	return
}

func currentTimestamp() int64 {
	return time.Now().UnixMilli()
}

func waitNextMillis(lastTimestamp int64) int64 {
	timestamp := currentTimestamp()
	for timestamp <= lastTimestamp {
		timestamp = currentTimestamp()
	}
	return timestamp
}
