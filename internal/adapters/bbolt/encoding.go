// Run encoding for bbolt values and keys.
//
// Keys sort chronologically inside a system bucket (big-endian):
//
//	at:  int64 unix nanoseconds (sign bit flipped so negatives sort first)
//	id:  run ID bytes (tie-breaker for runs in the same nanosecond)
//
// Values are gob-encoded ports.RunRecord.
package bbolt

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/corey/mamdani/internal/ports"
)

// timeSize is the byte size of the time prefix of a run key.
const timeSize = 8

// runKey builds the chronological key for a record.
func runKey(rec *ports.RunRecord) []byte {
	key := make([]byte, timeSize+len(rec.ID))
	binary.BigEndian.PutUint64(key, uint64(rec.At)^(1<<63))
	copy(key[timeSize:], rec.ID)
	return key
}

// runKeyTime decodes the time prefix of a run key.
func runKeyTime(key []byte) (int64, error) {
	if len(key) < timeSize {
		return 0, fmt.Errorf("run key too short: %d bytes", len(key))
	}
	return int64(binary.BigEndian.Uint64(key) ^ (1 << 63)), nil
}

func encodeRun(rec *ports.RunRecord) ([]byte, error) {
	return encodeGob(rec)
}

func decodeRun(data []byte) (*ports.RunRecord, error) {
	var rec ports.RunRecord
	if err := decodeGob(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// encodeGob encodes a value using gob. Records are small maps of floats;
// gob keeps them compact without a custom binary format.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob decodes gob-encoded data into target. Target must be a pointer.
func decodeGob(data []byte, target interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(target)
}
