package tag

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

const (
	defaultChunkSize = 100
	maxEventBytes    = 16 << 20
)

// ReadEvents decodes one event per line and calls fn with each chunk and the
// number of lines skipped while filling it. Blank lines are ignored; lines
// that do not decode or lack a sequence are skipped.
func ReadEvents(r io.Reader, chunkSize int, fn func(events []*domain.Event, skipped int) error) error {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxEventBytes)

	chunk := make([]*domain.Event, 0, chunkSize)
	skipped := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var event domain.Event
		if err := json.Unmarshal(line, &event); err != nil || event.Sequence == "" {
			skipped++
			continue
		}
		chunk = append(chunk, &event)

		if len(chunk) == chunkSize {
			if err := fn(chunk, skipped); err != nil {
				return err
			}
			chunk = make([]*domain.Event, 0, chunkSize)
			skipped = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read events: %w", err)
	}

	if len(chunk) > 0 || skipped > 0 {
		return fn(chunk, skipped)
	}
	return nil
}
