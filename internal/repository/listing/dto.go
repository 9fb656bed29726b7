package listing

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	domlisting "github.com/kailas-cloud/matchmate/internal/domain/listing"
)

// record is the stored JSON shape. The embedding is packed as base64 little-endian
// float32 instead of a JSON number array, which is about a quarter of the size.
type record struct {
	domlisting.Listing
	Embedding string `json:"embedding,omitempty"`
}

func toRecord(l *domlisting.Listing) record {
	r := record{Listing: *l}
	r.Listing.Embedding = nil
	if len(l.Embedding) > 0 {
		r.Embedding = base64.StdEncoding.EncodeToString(vectorToBytes(l.Embedding))
	}
	return r
}

func fromRecord(r *record) (domlisting.Listing, error) {
	l := r.Listing
	l.Embedding = nil
	if r.Embedding == "" {
		return l, nil
	}
	raw, err := base64.StdEncoding.DecodeString(r.Embedding)
	if err != nil {
		return domlisting.Listing{}, fmt.Errorf("decode embedding: %w", err)
	}
	vec, err := bytesToVector(raw)
	if err != nil {
		return domlisting.Listing{}, err
	}
	l.Embedding = vec
	return l, nil
}

// vectorToBytes serializes []float32 (4 bytes per float, little-endian).
func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding data: len=%d (not multiple of 4)", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
