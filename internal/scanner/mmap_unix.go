//go:build linux || darwin

package scanner

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapFile memory-maps path read-only and returns a closer that unmaps
// it. An error opening the file is returned as is; a zero-length file
// yields an empty slice; if stat or mmap fails it falls back to
// reading the whole file with os.ReadFile.
func mapFile(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return readFileFallback(path)
	}
	if info.Size() == 0 {
		return []byte{}, func() {}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return readFileFallback(path)
	}

	closer := func() {
		_ = unix.Munmap(data)
	}
	return data, closer, nil
}

func readFileFallback(path string) ([]byte, func(), error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() {}, nil
}
