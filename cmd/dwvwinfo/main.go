// Command dwvwinfo prints the header information of an AIFF/AIFC file:
// channel count, sample rate, bit depth, duration, AIFC encoding tag and
// any Apple-specific sampler metadata it carries. It never touches the
// DWVW codec itself, so it works equally well on a compressed DWVW/AIFC
// file or a plain AIFF.
package main

import (
	"fmt"
	"os"

	"github.com/go-audio/dwvw"
	"github.com/spf13/cobra"
)

var flagPath string

func main() {
	root := &cobra.Command{
		Use:   "dwvwinfo",
		Short: "Print AIFF/AIFC header and metadata information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagPath == "" {
				return fmt.Errorf("you must set the --path flag")
			}
			return printInfo(flagPath)
		},
	}
	root.Flags().StringVar(&flagPath, "path", "", "the path to the file to analyze")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printInfo(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("couldn't open %s: %w", path, err)
	}
	defer f.Close()

	d := aiff.NewDecoder(f)
	if err := d.Drain(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	fmt.Print(d)
	return nil
}
