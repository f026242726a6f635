package modelstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/wonny/aegis-credit/internal/model"
)

var (
	ErrModelNotFound = errors.New("model not found")
	ErrCorruptModel  = errors.New("model blob is corrupt")
)

// Store persists trained model snapshots
// ⭐ SSOT: 모델 직렬화 포맷은 Encode/Decode 만 사용
type Store interface {
	// Save persists the snapshot and returns where it was written
	Save(ctx context.Context, s *model.Snapshot) (string, error)
	// Load returns the most recently saved snapshot
	Load(ctx context.Context) (*model.Snapshot, error)
}

// Encode serialises a snapshot as indented JSON
func Encode(s *model.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrCorruptModel)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a JSON blob and checks it restores into a usable model
func Decode(data []byte) (*model.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var s model.Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	if _, err := model.Restore(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	return &s, nil
}

// Fingerprint identifies a model by its scoring-relevant content
// (feature order, weights, bias); training metadata does not change it
func Fingerprint(s *model.Snapshot) string {
	h := sha256.New()
	for _, f := range s.FeatureOrder {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	for _, w := range append(append([]float64{}, s.Weights...), s.Bias) {
		h.Write([]byte(strconv.FormatUint(math.Float64bits(w), 16)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ShortFingerprint 표시용 앞 12자리
func ShortFingerprint(s *model.Snapshot) string {
	return Fingerprint(s)[:12]
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}
