package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MarshalVector serializes a float32 vector as a little-endian byte slice.
// The fixed-width layout keeps face encodings portable across languages and
// makes exact-bytes equality well defined.
func MarshalVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// UnmarshalVector deserializes a little-endian float32 vector.
func UnmarshalVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}
