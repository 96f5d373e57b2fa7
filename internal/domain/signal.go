package domain

// Placement names where the text extractor saw a state.
const (
	PlaceBeginning = "Beginning"
	PlaceBody      = "Body"
)

// SignalProps is the per-admin-area payload of a URL, publisher or text
// signal. URL and publisher signals are presence-only.
type SignalProps struct {
	Place []string `json:"place,omitempty"`
	Count int      `json:"count,omitempty"`
}

// AdminSignal maps lower-cased admin-area names to their props.
type AdminSignal map[string]SignalProps
