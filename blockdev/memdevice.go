package blockdev

import (
	"io"

	"github.com/xaionaro-go/bytesextra"
)

// MemDevice is a block device backed entirely by memory -- the "RAM disk"
// collaborator the spec treats as external, made concrete here so the rest
// of the stack has something to mount in tests and in the CLI.
type MemDevice struct {
	sectorSize int
	stream     io.ReadWriteSeeker
	data       []byte
}

// NewMemDevice wraps an existing byte slice as a block device. The slice's
// length must be an exact multiple of sectorSize.
func NewMemDevice(data []byte, sectorSize int) (*MemDevice, error) {
	if len(data)%sectorSize != 0 {
		return nil, &boundsError{len(data), sectorSize}
	}
	return &MemDevice{
		sectorSize: sectorSize,
		stream:     bytesextra.NewReadWriteSeeker(data),
		data:       data,
	}, nil
}

// NewBlankMemDevice allocates a zeroed device of the given geometry.
func NewBlankMemDevice(sectorCount int64, sectorSize int) (*MemDevice, error) {
	data := make([]byte, sectorCount*int64(sectorSize))
	return NewMemDevice(data, sectorSize)
}

type boundsError struct {
	length, sectorSize int
}

func (e *boundsError) Error() string {
	return "data length is not a multiple of the sector size"
}

func (d *MemDevice) SectorSize() int {
	return d.sectorSize
}

func (d *MemDevice) SectorCount() int64 {
	return int64(len(d.data)) / int64(d.sectorSize)
}

// Bytes returns the device's backing storage. Callers must not retain it
// past the device's lifetime if they intend to swap it out with NewMemDevice
// again.
func (d *MemDevice) Bytes() []byte {
	return d.data
}

func (d *MemDevice) ReadAt(sector int64, buf []byte) error {
	if err := CheckBounds(d, sector, buf); err != nil {
		return err
	}
	if _, err := d.stream.Seek(sector*int64(d.sectorSize), io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(d.stream, buf)
	return err
}

func (d *MemDevice) WriteAt(sector int64, buf []byte) error {
	if err := CheckBounds(d, sector, buf); err != nil {
		return err
	}
	if _, err := d.stream.Seek(sector*int64(d.sectorSize), io.SeekStart); err != nil {
		return err
	}
	_, err := d.stream.Write(buf)
	return err
}
