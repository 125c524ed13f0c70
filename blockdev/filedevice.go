package blockdev

import "os"

// FileDevice is a block device backed by a regular file on disk, the
// backing store cmd/vfsctl opens disk images from.
type FileDevice struct {
	f          *os.File
	sectorSize int
	sectors    int64
}

// OpenFileDevice opens an existing image file and treats it as a block
// device of the given sector size. The file's length must be an exact
// multiple of sectorSize.
func OpenFileDevice(path string, sectorSize int) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size()%int64(sectorSize) != 0 {
		f.Close()
		return nil, &boundsError{int(info.Size()), sectorSize}
	}

	return &FileDevice{f: f, sectorSize: sectorSize, sectors: info.Size() / int64(sectorSize)}, nil
}

// CreateFileDevice creates a new zero-filled image file of the given
// geometry and opens it as a block device.
func CreateFileDevice(path string, sectorCount int64, sectorSize int) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(sectorCount * int64(sectorSize)); err != nil {
		f.Close()
		return nil, err
	}
	return &FileDevice{f: f, sectorSize: sectorSize, sectors: sectorCount}, nil
}

func (d *FileDevice) SectorSize() int     { return d.sectorSize }
func (d *FileDevice) SectorCount() int64  { return d.sectors }
func (d *FileDevice) Close() error        { return d.f.Close() }

func (d *FileDevice) ReadAt(sector int64, buf []byte) error {
	if err := CheckBounds(d, sector, buf); err != nil {
		return err
	}
	_, err := d.f.ReadAt(buf, sector*int64(d.sectorSize))
	return err
}

func (d *FileDevice) WriteAt(sector int64, buf []byte) error {
	if err := CheckBounds(d, sector, buf); err != nil {
		return err
	}
	_, err := d.f.WriteAt(buf, sector*int64(d.sectorSize))
	return err
}
