// Package placeline implements the offline placeline command.
package placeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/geotagger/internal/placeline"
	"github.com/jonesrussell/north-cloud/geotagger/internal/reftables"
)

// docFields is the column count of the input: id, label, unused, text.
const docFields = 4

// Detector finds a placeline in a document.
type Detector interface {
	Detect(doc string) string
}

// Command returns the placeline command.
func Command() *cobra.Command {
	var input, output, stateCodes, placeNames string

	cmd := &cobra.Command{
		Use:   "placeline",
		Short: "List documents that open with a placeline",
		Long: `Placeline reads a TSV of id, label, unused and text columns and writes
the id of every document whose text has a placeline.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			tables, err := reftables.Load(reftables.Paths{StateCodes: stateCodes, NameAmbiguity: placeNames})
			if err != nil {
				return err
			}
			detector := placeline.NewDetector(tables.StateCodes, tables.Ambiguity)

			in, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer in.Close()

			out, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer out.Close()

			return Scan(in, out, detector)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "documents file (TSV)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "matching ids file")
	cmd.Flags().StringVar(&stateCodes, "state-codes", "", "state code listing (default embedded)")
	cmd.Flags().StringVar(&placeNames, "place-names", "", "place name listing (default embedded)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// Scan writes the id of each document with a placeline, one per line. Lines
// without exactly four columns are skipped.
func Scan(r io.Reader, w io.Writer, detector Detector) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), 16<<20)
	out := bufio.NewWriter(w)

	for scanner.Scan() {
		fields := strings.Split(strings.TrimSpace(scanner.Text()), "\t")
		if len(fields) != docFields {
			continue
		}
		if detector.Detect(fields[3]) == "" {
			continue
		}
		if _, err := fmt.Fprintln(out, fields[0]); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read documents: %w", err)
	}
	return out.Flush()
}
