package main

import "os"

// loadInput reads path into memory, optionally via mmap. A plain os.ReadFile
// is the default and works on every platform; mmap is an opt-in loader-level
// optimization and the returned bytes are identical either way.
func loadInput(path string, useMmap bool) ([]byte, func(), error) {
	if useMmap {
		return mmapFile(path)
	}
	data, err := os.ReadFile(path)
	return data, func() {}, err
}
