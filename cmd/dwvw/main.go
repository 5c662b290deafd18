// Command dwvw compresses AIFF/AIFC files with uncompressed samples into
// AIFC/DWVW, and decompresses AIFC/DWVW back into AIFC with uncompressed
// samples.
package main

import (
	"fmt"
	"os"

	"github.com/go-audio/dwvw/internal/container"
	"github.com/spf13/cobra"
)

var (
	flagMmap     bool
	flagWordSize int16
)

func main() {
	root := &cobra.Command{
		Use:   "dwvw",
		Short: "Compress and decompress AIFF/AIFC files using the DWVW codec",
	}
	root.PersistentFlags().BoolVar(&flagMmap, "mmap", false, "memory-map the input file instead of reading it into a buffer")

	compressCmd := &cobra.Command{
		Use:   "compress INFILE OUTFILE",
		Short: "Compress an uncompressed AIFF/AIFC file to AIFC/DWVW",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(args[0], args[1])
		},
	}
	compressCmd.Flags().Int16Var(&flagWordSize, "word-size", container.DefaultCompressedWordSize, "DWVW delta bit width to encode at")

	decompressCmd := &cobra.Command{
		Use:   "decompress INFILE OUTFILE",
		Short: "Decompress an AIFC/DWVW file back to AIFC with uncompressed samples",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompress(args[0], args[1])
		},
	}

	root.AddCommand(compressCmd, decompressCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCompress(in, out string) error {
	data, closer, err := loadInput(in, flagMmap)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}
	defer closer()

	result, err := container.Compress(data, flagWordSize)
	if err != nil {
		return fmt.Errorf("failed to compress %s: %w", in, err)
	}
	if err := os.WriteFile(out, result, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	return nil
}

func runDecompress(in, out string) error {
	data, closer, err := loadInput(in, flagMmap)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}
	defer closer()

	result, err := container.Decompress(data)
	if err != nil {
		return fmt.Errorf("failed to decompress %s: %w", in, err)
	}
	if err := os.WriteFile(out, result, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	return nil
}
