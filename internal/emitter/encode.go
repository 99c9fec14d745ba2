package emitter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/snappy"
)

// Batch is the wire envelope published to the sink: one collection
// cycle's metrics plus the cycle timestamp.
type Batch struct {
	CollectedAt time.Time `json:"collected_at"`
	Metrics     []Metric  `json:"metrics"`
}

// EncodeBatch serializes a batch to JSON, optionally snappy-compressed.
func EncodeBatch(b Batch, compress bool) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}
	if !compress {
		return data, nil
	}
	return snappy.Encode(nil, data), nil
}

// DecodeBatch deserializes a batch payload produced by EncodeBatch.
func DecodeBatch(data []byte, compressed bool) (Batch, error) {
	var b Batch
	if compressed {
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return b, fmt.Errorf("snappy decompress failed: %w", err)
		}
		data = decoded
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("failed to unmarshal batch: %w", err)
	}
	return b, nil
}
