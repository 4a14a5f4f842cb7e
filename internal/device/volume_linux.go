//go:build linux

package device

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Audio-output driver requests. Both take a volumeRequest pointing at two int32s;
// the gain is the second one.
const (
	ioctlSetVolume = 0x4008690b
	ioctlGetVolume = 0xc008690c
)

type volumeRequest struct {
	Size uint64
	Ptr  uint64
}

// Volume reads and writes the output gain. The device stays open until Close.
type Volume struct {
	mu sync.Mutex
	fd int
}

// OpenVolume opens the gain control at path. When the device cannot be opened the
// returned Volume is still usable: reads report ErrUnavailable and writes are skipped.
func OpenVolume(path string) (*Volume, error) {
	if path == "" {
		path = VolumePath
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return &Volume{fd: -1}, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	return &Volume{fd: fd}, nil
}

func (v *Volume) ReadGain() (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fd < 0 {
		return 0, ErrUnavailable
	}
	gain, err := v.transact(ioctlGetVolume, 0)
	if err != nil {
		return 0, fmt.Errorf("get volume: %w", err)
	}
	return int(gain), nil
}

func (v *Volume) WriteGain(gain int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fd < 0 {
		return ErrUnavailable
	}
	if _, err := v.transact(ioctlSetVolume, int32(gain)); err != nil {
		return fmt.Errorf("set volume %d: %w", gain, err)
	}
	return nil
}

func (v *Volume) transact(req uintptr, gain int32) (int32, error) {
	// Heap allocated so the address handed to the driver stays valid.
	buf := new([2]int32)
	buf[1] = gain
	desc := &volumeRequest{
		Size: uint64(unsafe.Sizeof(*buf)),
		Ptr:  uint64(uintptr(unsafe.Pointer(buf))),
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(v.fd), req, uintptr(unsafe.Pointer(desc)))
	runtime.KeepAlive(buf)
	runtime.KeepAlive(desc)
	if errno != 0 {
		return 0, errno
	}
	return buf[1], nil
}

func (v *Volume) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fd < 0 {
		return nil
	}
	err := unix.Close(v.fd)
	v.fd = -1
	return err
}
