package rtcmem

import (
	"io"
	"sync"

	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/juju/errors"
	"github.com/temoto/extremofile"
)

type storage interface {
	Read() ([]byte, error)
	io.Writer
}

// FileMem keeps region in a directory on host filesystem,
// so simulated device restarts (deep sleep wake) see previous content.
// Deleting the directory is the power loss.
type FileMem struct {
	mu      sync.Mutex
	log     *log2.Log
	size    int
	storage storage
}

var _ Memory = &FileMem{} // compile-time interface test

func NewFileMem(dir string, size int, log *log2.Log) (*FileMem, error) {
	if dir == "" {
		return nil, errors.NotValidf("rtcmem dir=empty")
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &FileMem{
		log:  log,
		size: size,
		storage: extremofile.New(extremofile.Config{
			Dir:      dir,
			DirPerm:  0755,
			FilePerm: 0644,
		}),
	}, nil
}

func (f *FileMem) Size() int { return f.size }

// load returns full region, missing or short storage reads as zeroes
func (f *FileMem) load() ([]byte, error) {
	region := make([]byte, f.size)
	b, err := f.storage.Read()
	if b == nil {
		if err != nil {
			return nil, errors.Annotate(err, "rtcmem storage read")
		}
		return region, nil
	}
	if err != nil {
		f.log.Errorf("rtcmem ignore non-critical storage err=%v", err)
	}
	copy(region, b)
	return region, nil
}

func (f *FileMem) Read(offset int, p []byte) error {
	if err := checkRange(f.size, offset, len(p)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	region, err := f.load()
	if err != nil {
		return err
	}
	copy(p, region[offset:])
	return nil
}

func (f *FileMem) Write(offset int, p []byte) error {
	if err := checkRange(f.size, offset, len(p)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	region, err := f.load()
	if err != nil {
		return err
	}
	copy(region[offset:], p)
	if _, err = f.storage.Write(region); err != nil {
		return errors.Annotate(err, "rtcmem storage write")
	}
	f.log.Debugf("rtcmem write offset=%d len=%d", offset, len(p))
	return nil
}
