package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/born-ml/nas/internal/tensor"
	"github.com/pkg/errors"
)

// Reader reads state dictionaries from .born format. The data section is
// loaded and checksummed when the reader is opened.
type Reader struct {
	header Header
	flags  uint32
	data   []byte
	index  map[string]TensorMeta
}

// NewReader opens and validates a .born file.
func NewReader(path string) (*Reader, error) {
	//nolint:gosec // G304: checkpoint path is user-provided by design
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = file.Close() }()

	r, err := ReadFrom(file)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return r, nil
}

// ReadFrom parses a .born stream.
func ReadFrom(src io.Reader) (*Reader, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(src, fixed); err != nil {
		return nil, errors.Wrap(err, "failed to read fixed header")
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", version, FormatVersion)
	}

	r := &Reader{flags: binary.LittleEndian.Uint32(fixed[8:12])}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	var stored [ChecksumSize]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(src, headerJSON); err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}
	if err := json.Unmarshal(headerJSON, &r.header); err != nil {
		return nil, errors.Wrap(err, "failed to parse header JSON")
	}

	//nolint:gosec // G115: headerSize bounded by MaxHeaderSize above
	padding := alignedOffset(int64(headerSize)) - int64(FixedHeaderSize) - int64(headerSize)
	if _, err := io.CopyN(io.Discard, src, padding); err != nil {
		return nil, errors.Wrap(err, "failed to skip padding")
	}

	data, err := io.ReadAll(io.LimitReader(src, int64(dataSize)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tensor data")
	}
	if uint64(len(data)) != dataSize {
		return nil, errors.Errorf("truncated data section: got %d of %d bytes", len(data), dataSize)
	}
	if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
		return nil, err
	}
	if err := ValidateHeader(&r.header, int64(len(data))); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	r.data = data
	r.index = make(map[string]TensorMeta, len(r.header.Tensors))
	for _, t := range r.header.Tensors {
		r.index[t.Name] = t
	}
	return r, nil
}

// Header returns the parsed header.
func (r *Reader) Header() Header { return r.header }

// Metadata returns the custom metadata.
func (r *Reader) Metadata() map[string]string { return r.header.Metadata }

// HasMetadata reports whether the metadata flag is set.
func (r *Reader) HasMetadata() bool { return r.flags&FlagHasMetadata != 0 }

// TensorNames returns the stored tensor names in file order.
func (r *Reader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, t := range r.header.Tensors {
		names[i] = t.Name
	}
	return names
}

// LoadTensor decodes one tensor.
func (r *Reader) LoadTensor(name string) (*tensor.RawTensor, error) {
	meta, ok := r.index[name]
	if !ok {
		return nil, errors.Wrapf(ErrTensorNotFound, "%q", name)
	}
	raw, err := tensor.NewRaw(tensor.Shape(meta.Shape))
	if err != nil {
		return nil, errors.Wrapf(err, "tensor %q", name)
	}
	buf := r.data[meta.Offset : meta.Offset+meta.Size]
	out := raw.Data()
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return raw, nil
}

// ReadStateDict decodes every tensor.
func (r *Reader) ReadStateDict() (map[string]*tensor.RawTensor, error) {
	stateDict := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, t := range r.header.Tensors {
		raw, err := r.LoadTensor(t.Name)
		if err != nil {
			return nil, err
		}
		stateDict[t.Name] = raw
	}
	return stateDict, nil
}

// Load reads a whole .born file.
func Load(path string) (map[string]*tensor.RawTensor, Header, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, Header{}, err
	}
	stateDict, err := r.ReadStateDict()
	if err != nil {
		return nil, Header{}, err
	}
	return stateDict, r.Header(), nil
}
