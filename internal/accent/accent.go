// Package accent holds the static accent-to-voice table used for synthesis.
// The set is fixed at startup and never mutated afterwards.
package accent

import (
	"encoding/json"
	"fmt"
	"os"
)

// Accent maps a short code to a synthesis voice and a display language tag.
type Accent struct {
	Code    string `json:"code"`
	VoiceID string `json:"voice_id"`
	Lang    string `json:"lang"`
}

// Set is an immutable collection of accents with a stable display order.
type Set struct {
	byCode map[string]Accent
	order  []string
}

// Default returns the built-in accent table.
func Default() *Set {
	return newSet([]Accent{
		{Code: "us", VoiceID: "EXAVITQu4vr4xnSDxMaL", Lang: "us"},
		{Code: "gb", VoiceID: "JBFqnCBsd6RMkjVDRZzb", Lang: "gb"},
		{Code: "au", VoiceID: "IKne3meq5aSn9XLyUdCD", Lang: "au"},
		{Code: "zh", VoiceID: "jGf6Nvwr7qkFPrcLThmD", Lang: "zh"},
		{Code: "sc", VoiceID: "y6p0SvBlfEe2MH4XN7BP", Lang: "sc"},
	})
}

// Load reads an accent table from a JSON file. The file is a JSON array of
// {code, voice_id, lang} objects; order in the file is the display order.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accents file: %w", err)
	}
	var accents []Accent
	if err := json.Unmarshal(data, &accents); err != nil {
		return nil, fmt.Errorf("parse accents file: %w", err)
	}
	if len(accents) == 0 {
		return nil, fmt.Errorf("accents file %s contains no accents", path)
	}
	for i, a := range accents {
		if a.Code == "" || a.VoiceID == "" {
			return nil, fmt.Errorf("accent entry %d: code and voice_id are required", i)
		}
	}
	return newSet(accents), nil
}

func newSet(accents []Accent) *Set {
	s := &Set{byCode: make(map[string]Accent, len(accents))}
	for _, a := range accents {
		if _, dup := s.byCode[a.Code]; dup {
			continue
		}
		s.byCode[a.Code] = a
		s.order = append(s.order, a.Code)
	}
	return s
}

// Lookup returns the accent for the given code.
func (s *Set) Lookup(code string) (Accent, bool) {
	a, ok := s.byCode[code]
	return a, ok
}

// List returns all accents in display order.
func (s *Set) List() []Accent {
	out := make([]Accent, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, s.byCode[code])
	}
	return out
}

// Len returns the number of accents in the set.
func (s *Set) Len() int { return len(s.order) }
