package sqlite

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"toponav/internal/domain"
)

var errCorruptBlob = errors.New("corrupt descriptor blob")

// EncodeAll/DecodeAll are safe for concurrent use with nil writers/readers
var (
	blobEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	blobDecoder, _ = zstd.NewReader(nil)
)

// encodeDescriptors packs rows as uvarint(count) then uvarint(len)+bytes per
// row and compresses the result. A nil set encodes to a nil blob (SQL NULL).
func encodeDescriptors(d domain.Descriptors) []byte {
	if d == nil {
		return nil
	}
	size := binary.MaxVarintLen64
	for _, row := range d {
		size += binary.MaxVarintLen64 + len(row)
	}
	raw := make([]byte, 0, size)
	raw = binary.AppendUvarint(raw, uint64(len(d)))
	for _, row := range d {
		raw = binary.AppendUvarint(raw, uint64(len(row)))
		raw = append(raw, row...)
	}
	return blobEncoder.EncodeAll(raw, nil)
}

func decodeDescriptors(blob []byte) (domain.Descriptors, error) {
	if blob == nil {
		return nil, nil
	}
	raw, err := blobDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptBlob, err)
	}

	count, n := binary.Uvarint(raw)
	if n <= 0 || count > uint64(len(raw)) {
		return nil, errCorruptBlob
	}
	raw = raw[n:]

	d := make(domain.Descriptors, 0, count)
	for i := uint64(0); i < count; i++ {
		l, n := binary.Uvarint(raw)
		if n <= 0 || l > uint64(len(raw)-n) {
			return nil, fmt.Errorf("%w: row %d truncated", errCorruptBlob, i)
		}
		raw = raw[n:]
		d = append(d, append([]byte(nil), raw[:l]...))
		raw = raw[l:]
	}
	if len(raw) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", errCorruptBlob, len(raw))
	}
	return d, nil
}
