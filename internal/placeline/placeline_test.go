package placeline_test

import (
	"testing"

	"github.com/jonesrussell/north-cloud/geotagger/internal/placeline"
	"github.com/jonesrussell/north-cloud/geotagger/internal/reftables"
)

func newDetector(t *testing.T) *placeline.Detector {
	t.Helper()
	tables := reftables.MustLoadEmbedded()
	return placeline.NewDetector(tables.StateCodes, tables.Ambiguity)
}

func TestDetector_Complete(t *testing.T) {
	t.Parallel()

	d := newDetector(t)
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"postal code", "Columbus, OH — The city council voted", "Columbus/Ohio"},
		{"all caps place", "SPRINGFIELD, Mo. — Officials said", "Springfield/Missouri"},
		{"full state name", "Police in Houston, Texas said", "Houston/Texas"},
		{"multi-word place", "ST. LOUIS, MO (AP) —", "St. Louis/Missouri"},
		{"place not in state", "Houston, OH — nothing", ""},
		{"no state code", "The mayor spoke on Tuesday.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := d.Complete(tt.doc); got != tt.want {
				t.Errorf("Complete(%q) = %q, want %q", tt.doc, got, tt.want)
			}
		})
	}
}

func TestDetector_Simple(t *testing.T) {
	t.Parallel()

	d := newDetector(t)
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unambiguous place", "HOUSTON (AP) - Storms", "Houston/Texas"},
		{"state name", "OHIO - Voters", "Ohio"},
		{"ambiguous place", "SPRINGFIELD (AP) - Storms", ""},
		{"oh guard", "OH - what a day", ""},
		{"washington", "WASHINGTON (AP) - Congress", placeline.WashingtonDC},
		{"new york", "NEW YORK (Reuters) - Stocks", placeline.NewYorkNewYork},
		{"no match", "Storms hit the coast.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := d.Simple(tt.doc); got != tt.want {
				t.Errorf("Simple(%q) = %q, want %q", tt.doc, got, tt.want)
			}
		})
	}
}

func TestDetector_CompleteWinsOverSimple(t *testing.T) {
	t.Parallel()

	d := newDetector(t)
	doc := "HOUSTON (AP) - Officials in Columbus, OH — said"
	if got := d.Simple(doc); got != "Houston/Texas" {
		t.Fatalf("Simple() = %q, want Houston/Texas", got)
	}
	if got := d.Detect(doc); got != "Columbus/Ohio" {
		t.Errorf("Detect() = %q, want Columbus/Ohio", got)
	}
}

func TestDetector_Detect_Deterministic(t *testing.T) {
	t.Parallel()

	d := newDetector(t)
	doc := "SEATTLE (AP) - Rain"
	first := d.Detect(doc)
	for range 5 {
		if got := d.Detect(doc); got != first {
			t.Fatalf("Detect() = %q, then %q", first, got)
		}
	}
}
