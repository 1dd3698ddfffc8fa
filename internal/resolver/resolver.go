// Package resolver maps a pack number to its ordered list of candidate
// download URLs. Pack archives were published under a few different naming
// schemes over the years, so each number has up to three possible addresses,
// tried strictly in order.
package resolver

import (
	"fmt"
	"strings"
)

const DefaultBaseURL = "https://packs.ppy.sh"

// Candidate is one fully-formed guess at a pack's download address, along
// with the filename it should be saved under.
type Candidate struct {
	URL      string
	Filename string
}

// Candidates returns the fixed, ordered candidate list for a pack number.
// No side effects, no network access.
func Candidates(baseURL string, pack int) []Candidate {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base := strings.TrimSuffix(baseURL, "/")
	return []Candidate{
		{
			URL:      fmt.Sprintf("%s/S%d%%20-%%20osu%%21%%20Beatmap%%20Pack%%20%%23%d.zip", base, pack, pack),
			Filename: fmt.Sprintf("osu! Beatmap Pack #%d.zip", pack),
		},
		{
			URL:      fmt.Sprintf("%s/S%d%%20-%%20Beatmap%%20Pack%%20%%23%d.zip", base, pack, pack),
			Filename: fmt.Sprintf("Beatmap Pack #%d.zip", pack),
		},
		{
			URL:      fmt.Sprintf("%s/S%d%%20-%%20Beatmap%%20Pack%%20%%23%d.7z", base, pack, pack),
			Filename: fmt.Sprintf("Beatmap Pack #%d.7z", pack),
		},
	}
}
