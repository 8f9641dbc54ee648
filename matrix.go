package libdoc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	matrixMagic   = "LDEM"
	matrixVersion = 1
)

// idsHash fingerprints an identifier table so a payload is never paired
// with the table of another write.
func idsHash(ids []string) uint64 {
	return xxhash.Sum64String(strings.Join(ids, "\n"))
}

// MarshalBinary encodes the matrix without its identifier table:
//
//	magic "LDEM" | version u32 | ids hash u64 | model len u16 | model
//	rows u32 | dim u32 | rows*dim float32, all little-endian
func (m *EmbeddingMatrix) MarshalBinary() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if len(m.Model) > math.MaxUint16 {
		return nil, Errorf(EINVALID, "embedding model name too long")
	}
	le := binary.LittleEndian
	b := make([]byte, 0, 26+len(m.Model)+4*len(m.Data))
	b = append(b, matrixMagic...)
	b = le.AppendUint32(b, matrixVersion)
	b = le.AppendUint64(b, idsHash(m.IDs))
	b = le.AppendUint16(b, uint16(len(m.Model)))
	b = append(b, m.Model...)
	b = le.AppendUint32(b, uint32(m.Rows()))
	b = le.AppendUint32(b, uint32(m.Dim))
	for _, v := range m.Data {
		b = le.AppendUint32(b, math.Float32bits(v))
	}
	return b, nil
}

// UnmarshalBinary decodes a payload produced by MarshalBinary. m.IDs must
// hold the identifier table the payload was written with.
func (m *EmbeddingMatrix) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	le := binary.LittleEndian

	magic := make([]byte, len(matrixMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != matrixMagic {
		return errors.New("bad magic")
	}
	var header struct {
		Version uint32
		Hash    uint64
		NameLen uint16
	}
	if err := binary.Read(r, le, &header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if header.Version != matrixVersion {
		return fmt.Errorf("unsupported version %d", header.Version)
	}
	if header.Hash != idsHash(m.IDs) {
		return errors.New("identifier table does not match payload")
	}
	model := make([]byte, header.NameLen)
	if _, err := io.ReadFull(r, model); err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	var shape struct {
		Rows uint32
		Dim  uint32
	}
	if err := binary.Read(r, le, &shape); err != nil {
		return fmt.Errorf("read shape: %w", err)
	}
	if int(shape.Rows) != len(m.IDs) {
		return fmt.Errorf("payload has %d rows for %d ids", shape.Rows, len(m.IDs))
	}
	n := uint64(shape.Rows) * uint64(shape.Dim)
	if uint64(r.Len()) != n*4 {
		return fmt.Errorf("payload has %d bytes for %d values", r.Len(), n)
	}
	values := make([]float32, n)
	if err := binary.Read(r, le, values); err != nil {
		return fmt.Errorf("read data: %w", err)
	}
	m.Model = string(model)
	m.Dim = int(shape.Dim)
	m.Data = values
	return m.Validate()
}
