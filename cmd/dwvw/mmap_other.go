//go:build !unix

package main

import "fmt"

func mmapFile(path string) ([]byte, func(), error) {
	return nil, nil, fmt.Errorf("--mmap is not supported on this platform")
}
