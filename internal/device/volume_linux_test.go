//go:build linux

package device

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"
)

func TestVolumeRequestLayout(t *testing.T) {
	if unsafe.Sizeof(volumeRequest{}) != 16 {
		t.Fatalf("request descriptor must be two 64-bit words")
	}
	if unsafe.Sizeof([2]int32{}) != 8 {
		t.Fatalf("gain buffer must be 8 bytes")
	}
}

func TestVolumeIoctlOnPlainFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mi_ao")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	v, err := OpenVolume(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer v.Close()
	if _, err := v.ReadGain(); err == nil {
		t.Fatal("ioctl on a regular file should fail")
	}
}
