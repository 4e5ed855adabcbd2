//go:build linux

package shadow

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func mapRegion(size int) ([]byte, error) {
	mem, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_NORESERVE)
	if err != nil {
		return nil, errors.Wrapf(err, "shadow: mmap %d bytes", size)
	}
	return mem, nil
}

func remapRegion(mem []byte) ([]byte, error) {
	size := len(mem)
	if err := unmapRegion(mem); err != nil {
		return nil, err
	}
	return mapRegion(size)
}

func unmapRegion(mem []byte) error {
	if err := unix.Munmap(mem); err != nil {
		return errors.Wrap(err, "shadow: munmap")
	}
	return nil
}
