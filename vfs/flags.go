package vfs

// OpenFlags controls the semantics of Open. Values match the spec's external
// interface exactly so callers that hard-code the numeric flags stay correct.
type OpenFlags int

const (
	O_RDONLY    OpenFlags = 1
	O_WRONLY    OpenFlags = 2
	O_RDWR      OpenFlags = 3
	O_CREAT     OpenFlags = 4
	O_EXCL      OpenFlags = 8
	O_TRUNC     OpenFlags = 16
	O_APPEND    OpenFlags = 32
	O_NONBLOCK  OpenFlags = 64
	O_SYNC      OpenFlags = 128
	O_DIRECTORY OpenFlags = 256

	// accessModeMask isolates the RDONLY/WRONLY/RDWR low bits.
	accessModeMask OpenFlags = O_RDWR
)

func (f OpenFlags) Readable() bool {
	mode := f & accessModeMask
	return mode == O_RDONLY || mode == O_RDWR
}

func (f OpenFlags) Writable() bool {
	mode := f & accessModeMask
	return mode == O_WRONLY || mode == O_RDWR
}

func (f OpenFlags) Create() bool    { return f&O_CREAT != 0 }
func (f OpenFlags) Exclusive() bool { return f&O_EXCL != 0 }
func (f OpenFlags) Truncate() bool  { return f&O_TRUNC != 0 }
func (f OpenFlags) Append() bool    { return f&O_APPEND != 0 }
func (f OpenFlags) Directory() bool { return f&O_DIRECTORY != 0 }

// Whence selects the reference point for Seek.
type Whence int

const (
	SeekSet Whence = 0
	SeekCur Whence = 1
	SeekEnd Whence = 2
)

// Permission bits, standard rwxrwxrwx layout starting at 0x100 for user-read.
type Mode uint32

const (
	ModeUserRead Mode = 1 << (iota + 8)
	ModeUserWrite
	ModeUserExec
	ModeGroupRead
	ModeGroupWrite
	ModeGroupExec
	ModeOtherRead
	ModeOtherWrite
	ModeOtherExec
)

const ModePermMask = ModeUserRead | ModeUserWrite | ModeUserExec |
	ModeGroupRead | ModeGroupWrite | ModeGroupExec |
	ModeOtherRead | ModeOtherWrite | ModeOtherExec

// MountFlags are opaque, driver-defined bits passed through Mount.
type MountFlags int
