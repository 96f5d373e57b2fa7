// Package reftables holds the immutable lookup tables loaded once at
// startup and shared read-only by every request.
package reftables

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

//go:embed data/*.tsv
var embedded embed.FS

const (
	stateCodesFile         = "data/state_codes.tsv"
	usStatesFile           = "data/us_states.tsv"
	nameAmbiguityFile      = "data/wiki_loc_names.tsv"
	publisherLocationsFile = "data/publisher_locations.tsv"
	sameNameLocationsFile  = "data/same_name_locations.tsv"
	wikiEntitiesFile       = "data/wiki_entities.tsv"

	maxLineBytes = 1 << 20
)

// Paths points at reference files on disk. Empty fields use the data
// embedded in the binary.
type Paths struct {
	StateCodes         string
	USStates           string
	NameAmbiguity      string
	PublisherLocations string
	SameNameLocations  string
	WikiEntities       string
}

// Tables bundles every reference table.
type Tables struct {
	StateCodes *StateCodes
	USStates   *USStates
	Ambiguity  *NameAmbiguity
	Publishers *PublisherLocations
	SameName   *SameNameLocations
	Keywords   *KeywordDictionary
}

// Load reads every table. extraPublishers are appended to the publisher file
// rows, typically from the location master database.
func Load(paths Paths, extraPublishers ...PublisherRow) (*Tables, error) {
	t := &Tables{}

	steps := []struct {
		name     string
		path     string
		fallback string
		parse    func(io.Reader) error
	}{
		{"state codes", paths.StateCodes, stateCodesFile, func(r io.Reader) (err error) {
			t.StateCodes, err = ParseStateCodes(r)
			return err
		}},
		{"us states", paths.USStates, usStatesFile, func(r io.Reader) (err error) {
			t.USStates, err = ParseUSStates(r)
			return err
		}},
		{"name ambiguity", paths.NameAmbiguity, nameAmbiguityFile, func(r io.Reader) (err error) {
			t.Ambiguity, err = ParseNameAmbiguity(r)
			return err
		}},
		{"publisher locations", paths.PublisherLocations, publisherLocationsFile, func(r io.Reader) error {
			rows, err := ParsePublisherRows(r)
			if err != nil {
				return err
			}
			t.Publishers = NewPublisherLocations(append(rows, extraPublishers...))
			return nil
		}},
		{"same-name locations", paths.SameNameLocations, sameNameLocationsFile, func(r io.Reader) (err error) {
			t.SameName, err = ParseSameNameLocations(r)
			return err
		}},
		{"wiki entities", paths.WikiEntities, wikiEntitiesFile, func(r io.Reader) (err error) {
			t.Keywords, err = ParseKeywordDictionary(r)
			return err
		}},
	}

	for _, step := range steps {
		if err := withReader(step.path, step.fallback, step.parse); err != nil {
			return nil, fmt.Errorf("load %s: %w", step.name, err)
		}
	}

	return t, nil
}

// MustLoadEmbedded loads the embedded tables and panics on failure. Tests
// and the CLI use it.
func MustLoadEmbedded() *Tables {
	t, err := Load(Paths{})
	if err != nil {
		panic(err)
	}
	return t
}

func withReader(path, fallback string, fn func(io.Reader) error) error {
	var (
		rc  io.ReadCloser
		err error
	)
	if path != "" {
		rc, err = os.Open(path)
	} else {
		rc, err = embedded.Open(fallback)
	}
	if err != nil {
		return err
	}
	defer rc.Close()

	return fn(rc)
}

// eachRecord calls fn with the tab-separated fields of every non-blank,
// non-comment line. With header set, the first such line is skipped.
func eachRecord(r io.Reader, header bool, fn func(fields []string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if header {
			header = false
			continue
		}

		fields := strings.Split(norm.NFC.String(line), "\t")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		fn(fields)
	}
	return scanner.Err()
}
