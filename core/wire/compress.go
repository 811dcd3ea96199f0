package wire

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"

	"zenoh-go/core/zerr"
)

// CompressThreshold is a payload size for use with CompressFragment.
// Nothing in this module reads it, calls CompressFragment, or reads
// the transport/compression config key.
const CompressThreshold = 8 * 1024

// CompressFragment zstd-compresses a payload and returns the compressed
// bytes. The wire grammar has no flag marking a message as compressed.
func CompressFragment(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, zerr.Wrap(zerr.SystemError, "create zstd encoder", err)
	}
	if _, err := enc.Write(payload); err != nil {
		_ = enc.Close()
		return nil, zerr.Wrap(zerr.IoError, "zstd compress", err)
	}
	if err := enc.Close(); err != nil {
		return nil, zerr.Wrap(zerr.IoError, "close zstd encoder", err)
	}
	return buf.Bytes(), nil
}

// DecompressFragment reverses CompressFragment.
func DecompressFragment(compressed []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, zerr.Wrap(zerr.SystemError, "create zstd decoder", err)
	}
	defer dec.Close()
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, zerr.Wrap(zerr.ProtocolError, "zstd decompress", err)
	}
	return out, nil
}
