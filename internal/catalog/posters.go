package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/iliyamo/movie-booking/internal/model"
)

// PlaceholderPoster is shown for movies with neither a stored nor a known
// poster URL.
const PlaceholderPoster = "https://via.placeholder.com/150"

//go:embed posters.json
var defaultPosters []byte

// Posters is a read-only title to poster URL table, loaded once at
// startup.  The zero value is an empty table.
type Posters struct {
	byTitle map[string]string
}

// DefaultPosters returns the table embedded in the binary.
func DefaultPosters() (*Posters, error) {
	return ParsePosters(defaultPosters)
}

// LoadPosters reads a poster table from a JSON object file.  An empty
// path selects the embedded table.
func LoadPosters(path string) (*Posters, error) {
	if path == "" {
		return DefaultPosters()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read poster table: %w", err)
	}
	return ParsePosters(b)
}

// ParsePosters decodes a JSON object mapping titles to URLs.
func ParsePosters(b []byte) (*Posters, error) {
	m := map[string]string{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse poster table: %w", err)
	}
	return &Posters{byTitle: m}, nil
}

// Lookup returns the table entry for title.
func (p *Posters) Lookup(title string) (string, bool) {
	if p == nil {
		return "", false
	}
	u, ok := p.byTitle[title]
	return u, ok
}

// Len reports the number of entries.
func (p *Posters) Len() int {
	if p == nil {
		return 0
	}
	return len(p.byTitle)
}

// Titles returns every title in the table in sorted order.
func (p *Posters) Titles() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.byTitle))
	for t := range p.byTitle {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// URLFor resolves the poster to display for m: the stored URL, else the
// table entry for its title, else PlaceholderPoster.
func (p *Posters) URLFor(m model.Movie) string {
	if m.PosterURL != nil && *m.PosterURL != "" {
		return *m.PosterURL
	}
	if u, ok := p.Lookup(m.Title); ok {
		return u
	}
	return PlaceholderPoster
}
