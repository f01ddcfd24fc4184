// Package archive walks the local file headers of a ZIP container without
// consulting the central directory, and inflates members on demand.
package archive

import (
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/yuanying/epub2txt/internal/apperr"
)

const (
	localHeaderSignature   = 0x04034b50
	centralHeaderSignature = 0x02014b50
	endOfCentralSignature  = 0x06054b50
	descriptorSignature    = 0x08074b50

	localHeaderLen = 30

	methodStore   = 0
	methodDeflate = 8

	flagDataDescriptor = 0x8
)

// maxStreamedSize bounds the one-off inflate used to measure members whose
// sizes are only recorded in a trailing data descriptor.
const maxStreamedSize int64 = 256 * 1024 * 1024

var (
	ErrCorrupt           = fmt.Errorf("%w: invalid zip file", apperr.ErrContainer)
	ErrTruncated         = fmt.Errorf("%w: truncated zip structure", apperr.ErrContainer)
	ErrDecompress        = fmt.Errorf("%w: decompress error", apperr.ErrContainer)
	ErrSizeLimit         = fmt.Errorf("%w: member exceeds its declared size", apperr.ErrContainer)
	ErrUnsupportedMethod = fmt.Errorf("%w: unsupported compression method", apperr.ErrContainer)
	ErrInvalidUTF8       = fmt.Errorf("%w: invalid UTF-8", apperr.ErrContainer)
)

// Member is one file of the container. It holds no decompressed data until
// Bytes or Text is called.
type Member struct {
	Name           string
	Offset         int64 // start of the compressed data
	CompressedSize int64
	Size           int64 // declared uncompressed size
	Method         uint16

	r io.ReaderAt
}

// Reader yields the members of a container in the order their local headers
// appear.
type Reader struct {
	r    io.ReaderAt
	pos  int64
	done bool
}

// NewReader creates a Reader positioned at the first local file header.
func NewReader(r io.ReaderAt) *Reader {
	return &Reader{r: r}
}

// Next returns the next member, or io.EOF once the central directory is reached.
func (z *Reader) Next() (*Member, error) {
	if z.done {
		return nil, io.EOF
	}

	var hdr [localHeaderLen]byte
	if err := readFullAt(z.r, hdr[:], z.pos); err != nil {
		return nil, fmt.Errorf("local header at offset %d: %w", z.pos, err)
	}

	signature := binary.LittleEndian.Uint32(hdr[0:4])
	if signature != localHeaderSignature {
		if signature == centralHeaderSignature || signature == endOfCentralSignature {
			z.done = true
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: signature %#08x at offset %d", ErrCorrupt, signature, z.pos)
	}

	flags := binary.LittleEndian.Uint16(hdr[6:8])
	method := binary.LittleEndian.Uint16(hdr[8:10])
	compressedSize := int64(binary.LittleEndian.Uint32(hdr[18:22]))
	uncompressedSize := int64(binary.LittleEndian.Uint32(hdr[22:26]))
	nameLen := int64(binary.LittleEndian.Uint16(hdr[26:28]))
	extraLen := int64(binary.LittleEndian.Uint16(hdr[28:30]))

	name := make([]byte, nameLen)
	if err := readFullAt(z.r, name, z.pos+localHeaderLen); err != nil {
		return nil, fmt.Errorf("file name at offset %d: %w", z.pos+localHeaderLen, err)
	}
	if !utf8.Valid(name) {
		return nil, fmt.Errorf("%w: file name at offset %d", ErrInvalidUTF8, z.pos+localHeaderLen)
	}

	m := &Member{
		Name:           string(name),
		Offset:         z.pos + localHeaderLen + nameLen + extraLen,
		CompressedSize: compressedSize,
		Size:           uncompressedSize,
		Method:         method,
		r:              z.r,
	}
	next := m.Offset + m.CompressedSize

	if flags&flagDataDescriptor != 0 {
		if compressedSize == 0 {
			if err := m.measure(); err != nil {
				return nil, fmt.Errorf("%s: %w", m.Name, err)
			}
		}
		n, err := m.skipDescriptor()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name, err)
		}
		next = m.Offset + m.CompressedSize + n
	}

	z.pos = next
	return m, nil
}

// measure inflates a member with deferred sizes once to find where its
// compressed data ends, then takes the sizes from the data descriptor.
func (m *Member) measure() error {
	if m.Method != methodDeflate {
		return fmt.Errorf("%w: stored member with deferred sizes", ErrCorrupt)
	}

	counter := &countingReader{r: m.r, off: m.Offset}
	fr := flate.NewReader(counter)
	defer fr.Close()

	n, err := io.Copy(io.Discard, io.LimitReader(fr, maxStreamedSize+1))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	if n > maxStreamedSize {
		return ErrSizeLimit
	}

	m.CompressedSize = counter.consumed()
	desc, err := m.readDescriptor()
	if err != nil {
		return err
	}
	if desc.compressedSize != m.CompressedSize {
		return fmt.Errorf("%w: data descriptor size %d, deflate stream length %d", ErrCorrupt, desc.compressedSize, m.CompressedSize)
	}
	m.Size = desc.uncompressedSize
	return nil
}

type descriptor struct {
	compressedSize   int64
	uncompressedSize int64
	length           int64
}

func (m *Member) readDescriptor() (descriptor, error) {
	pos := m.Offset + m.CompressedSize
	var buf [16]byte
	if err := readFullAt(m.r, buf[:12], pos); err != nil {
		return descriptor{}, fmt.Errorf("data descriptor: %w", err)
	}
	fields := buf[:12]
	length := int64(12)
	if binary.LittleEndian.Uint32(buf[0:4]) == descriptorSignature {
		if err := readFullAt(m.r, buf[:16], pos); err != nil {
			return descriptor{}, fmt.Errorf("data descriptor: %w", err)
		}
		fields = buf[4:16]
		length = 16
	}
	return descriptor{
		compressedSize:   int64(binary.LittleEndian.Uint32(fields[4:8])),
		uncompressedSize: int64(binary.LittleEndian.Uint32(fields[8:12])),
		length:           length,
	}, nil
}

func (m *Member) skipDescriptor() (int64, error) {
	desc, err := m.readDescriptor()
	if err != nil {
		return 0, err
	}
	return desc.length, nil
}

// Bytes reads and decompresses the member. Inflating stops with ErrSizeLimit
// as soon as the output would exceed the declared size.
func (m *Member) Bytes() ([]byte, error) {
	sr := io.NewSectionReader(m.r, m.Offset, m.CompressedSize)

	switch m.Method {
	case methodStore:
		if m.CompressedSize != m.Size {
			return nil, fmt.Errorf("%w: stored member %s has sizes %d/%d", ErrCorrupt, m.Name, m.CompressedSize, m.Size)
		}
		data := make([]byte, m.Size)
		if _, err := io.ReadFull(sr, data); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTruncated, m.Name, err)
		}
		return data, nil

	case methodDeflate:
		fr := flate.NewReader(sr)
		defer fr.Close()
		data, err := io.ReadAll(io.LimitReader(fr, m.Size+1))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecompress, m.Name, err)
		}
		if int64(len(data)) > m.Size {
			return nil, fmt.Errorf("%w: %s declares %d bytes", ErrSizeLimit, m.Name, m.Size)
		}
		return data, nil

	default:
		return nil, fmt.Errorf("%w: %s uses method %d", ErrUnsupportedMethod, m.Name, m.Method)
	}
}

// Text decompresses the member and decodes it as UTF-8, dropping a leading BOM.
func (m *Member) Text() (string, error) {
	data, err := m.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrInvalidUTF8, m.Name)
	}
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	return string(data), nil
}

// Archive is a fully walked container.
type Archive struct {
	Members []*Member

	byName map[string]*Member
	closer io.Closer
}

// Open walks the container at path. The file stays open until Close so that
// members can be extracted lazily.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	a, err := New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// New walks every local header readable from r.
func New(r io.ReaderAt) (*Archive, error) {
	a := &Archive{byName: make(map[string]*Member)}
	zr := NewReader(r)
	for {
		m, err := zr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		a.Members = append(a.Members, m)
		a.byName[m.Name] = m
	}
	return a, nil
}

// Member looks a member up by its exact name.
func (a *Archive) Member(name string) (*Member, bool) {
	m, ok := a.byName[name]
	return m, ok
}

// Close releases the underlying file, if the archive owns one.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func readFullAt(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: %v", ErrTruncated, err)
}

// countingReader serves flate exactly the bytes it asks for, so the number of
// bytes handed out equals the length of the deflate stream.
type countingReader struct {
	r   io.ReaderAt
	off int64

	buf    [4096]byte
	start  int
	end    int
	served int64
	eof    bool
}

func (c *countingReader) fill() error {
	if c.start < c.end {
		return nil
	}
	if c.eof {
		return io.EOF
	}
	n, err := c.r.ReadAt(c.buf[:], c.off+c.served)
	c.start, c.end = 0, n
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return err
		}
		c.eof = true
		if n == 0 {
			return io.EOF
		}
	}
	return nil
}

func (c *countingReader) ReadByte() (byte, error) {
	if err := c.fill(); err != nil {
		return 0, err
	}
	b := c.buf[c.start]
	c.start++
	c.served++
	return b, nil
}

func (c *countingReader) Read(p []byte) (int, error) {
	if err := c.fill(); err != nil {
		return 0, err
	}
	n := copy(p, c.buf[c.start:c.end])
	c.start += n
	c.served += int64(n)
	return n, nil
}

func (c *countingReader) consumed() int64 {
	return c.served
}
