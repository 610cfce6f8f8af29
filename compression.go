package determin

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// compressionType represents the inline-payload compression envelope
// named by options.compression (§10.3).
type compressionType int

const (
	compressionNone compressionType = iota
	compressionGZ
	compressionBZ2
	compressionXZ
	compressionZSTD
)

// String returns the option-string form of the compression type.
func (ct compressionType) String() string {
	switch ct {
	case compressionNone:
		return "none"
	case compressionGZ:
		return "gzip"
	case compressionBZ2:
		return "bzip2"
	case compressionXZ:
		return "xz"
	case compressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

// parseCompressionType maps an options.compression value to a
// compressionType. An empty string means "none".
func parseCompressionType(name string) (compressionType, error) {
	switch name {
	case "", "none":
		return compressionNone, nil
	case "gzip":
		return compressionGZ, nil
	case "bzip2":
		return compressionBZ2, nil
	case "xz":
		return compressionXZ, nil
	case "zstd":
		return compressionZSTD, nil
	default:
		return compressionNone, fmt.Errorf("unknown compression %q", name)
	}
}

// compressionHandler decompresses an inline byte payload.
type compressionHandler interface {
	Decompress(data []byte) ([]byte, error)
}

type compressionHandlerImpl struct {
	ct compressionType
}

// newCompressionHandler creates a handler for the given compression type,
// mirroring the teacher's compression.go factory (newCompressionHandler).
func newCompressionHandler(ct compressionType) compressionHandler {
	return &compressionHandlerImpl{ct: ct}
}

func (h *compressionHandlerImpl) Decompress(data []byte) ([]byte, error) {
	switch h.ct {
	case compressionNone:
		return data, nil

	case compressionGZ:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)

	case compressionBZ2:
		return io.ReadAll(bzip2.NewReader(bytes.NewReader(data)))

	case compressionXZ:
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return io.ReadAll(r)

	case compressionZSTD:
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		return io.ReadAll(dec)

	default:
		return nil, fmt.Errorf("unsupported compression type: %v", h.ct)
	}
}

// decompressPayload decompresses raw bytes according to the named
// compression scheme from options.compression.
func decompressPayload(data []byte, name string) ([]byte, error) {
	ct, err := parseCompressionType(name)
	if err != nil {
		return nil, err
	}
	return newCompressionHandler(ct).Decompress(data)
}
