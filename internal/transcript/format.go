// Package transcript turns the provider's raw utterance list into the
// segment representation served to clients.
package transcript

// Utterance is one provider-reported span of speech attributed to a single
// speaker, with offsets in milliseconds.
type Utterance struct {
	Speaker     string
	Text        string
	StartMillis int64
	EndMillis   int64
}

// Segment is one display-ready row of the diarized transcript. Offsets are
// in seconds.
type Segment struct {
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Format maps utterances to segments one-to-one, preserving input order.
// Adjacent same-speaker utterances are not merged. An empty input yields an
// empty (non-nil) slice so the JSON encoding stays an array.
func Format(utterances []Utterance) []Segment {
	segments := make([]Segment, 0, len(utterances))
	for _, u := range utterances {
		segments = append(segments, Segment{
			Speaker: "Speaker " + u.Speaker,
			Text:    u.Text,
			Start:   float64(u.StartMillis) / 1000,
			End:     float64(u.EndMillis) / 1000,
		})
	}
	return segments
}
