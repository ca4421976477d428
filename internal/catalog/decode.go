// Package catalog turns externally supplied movie descriptors into movie
// and showtime rows and serves the catalog to the HTTP layer.  Ingestion
// is idempotent: movies are keyed by title and showtimes by movie, date,
// time and hall, so re-running a payload never creates duplicates.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/movie-booking/internal/validation"
)

// Defaults applied to descriptors that omit optional fields.
const (
	DefaultGenre    = "Unknown"
	DefaultDuration = 120
	DefaultRating   = 5.0
	DefaultHall     = "Unknown"
)

// ErrMalformedPayload is the single structural error reported when the
// payload as a whole is not a JSON list.
var ErrMalformedPayload = errors.New("catalog payload must be a JSON array of movie entries")

// Entry is one undecoded movie descriptor.  Entries stay raw until
// ingestion so that a malformed entry only fails itself.
type Entry json.RawMessage

// MovieInput is a normalized movie descriptor with defaults applied.
type MovieInput struct {
	Title     string          `json:"title" validate:"required,max=255"`
	Genre     string          `json:"genre" validate:"max=100"`
	Duration  int             `json:"duration" validate:"gte=0,lte=100000"`
	Rating    float64         `json:"rating" validate:"gte=0,lte=99.9"`
	PosterURL *string         `json:"poster_url" validate:"omitempty,url,max=500"`
	Showtimes []ShowtimeInput `json:"-" validate:"-"`
}

// ShowtimeInput is a normalized showtime descriptor.  Date is
// "2006-01-02" and Time is "15:04".
type ShowtimeInput struct {
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string `json:"time" validate:"required,datetime=15:04"`
	CinemaHall string `json:"cinema_hall" validate:"required,max=255"`
}

// Both legacy shapes are accepted: flat {title, genre, ..., showtimes} and
// wrapped {movie: {title, ...}, showtimes}.
type rawEntry struct {
	rawMovie
	Movie     *rawMovie         `json:"movie"`
	Showtimes []json.RawMessage `json:"showtimes"`
}

type rawMovie struct {
	Title     *string  `json:"title"`
	Genre     *string  `json:"genre"`
	Duration  *float64 `json:"duration"`
	Rating    *float64 `json:"rating"`
	PosterURL *string  `json:"poster_url"`
}

type rawShowtime struct {
	Date       *string `json:"date"`
	Time       *string `json:"time"`
	CinemaHall *string `json:"cinema_hall"`
}

// Decode reads a catalog payload.  Anything other than a JSON array
// yields ErrMalformedPayload; the elements themselves are not inspected.
func Decode(r io.Reader) ([]Entry, error) {
	var raws []json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if raws == nil {
		// A literal null decodes without error.
		return nil, ErrMalformedPayload
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after array", ErrMalformedPayload)
	}
	out := make([]Entry, len(raws))
	for i, raw := range raws {
		out[i] = Entry(raw)
	}
	return out, nil
}

// Parse decodes and normalizes one entry.  Showtime descriptors with a
// missing or invalid date or time are dropped and reported as warnings;
// the returned error is set only when the whole entry must be skipped.
func (e Entry) Parse() (MovieInput, []Warning, error) {
	var raw rawEntry
	dec := json.NewDecoder(bytes.NewReader(e))
	if err := dec.Decode(&raw); err != nil {
		return MovieInput{}, nil, &Warning{Field: "entry", Message: "malformed entry: " + err.Error()}
	}
	src := raw.rawMovie
	if raw.Movie != nil {
		src = *raw.Movie
	}

	in := MovieInput{
		Genre:    DefaultGenre,
		Duration: DefaultDuration,
		Rating:   DefaultRating,
	}
	if src.Title == nil || strings.TrimSpace(*src.Title) == "" {
		return MovieInput{}, nil, &Warning{Field: "title", Message: "missing title"}
	}
	in.Title = strings.TrimSpace(*src.Title)
	if src.Genre != nil && strings.TrimSpace(*src.Genre) != "" {
		in.Genre = strings.TrimSpace(*src.Genre)
	}
	if src.Duration != nil {
		if *src.Duration != math.Trunc(*src.Duration) {
			return MovieInput{}, nil, &Warning{Field: "duration", Message: "duration must be a whole number of minutes"}
		}
		in.Duration = int(*src.Duration)
	}
	if src.Rating != nil {
		in.Rating = math.Round(*src.Rating*10) / 10
	}
	if src.PosterURL != nil && strings.TrimSpace(*src.PosterURL) != "" {
		u := strings.TrimSpace(*src.PosterURL)
		in.PosterURL = &u
	}
	if err := validation.Validate.Struct(in); err != nil {
		return MovieInput{}, nil, fieldWarning(err)
	}

	var warns []Warning
	for i, rs := range raw.Showtimes {
		st, w := parseShowtime(rs)
		if w != nil {
			idx := i
			w.Showtime = &idx
			warns = append(warns, *w)
			continue
		}
		in.Showtimes = append(in.Showtimes, st)
	}
	return in, warns, nil
}

func parseShowtime(b json.RawMessage) (ShowtimeInput, *Warning) {
	var rs rawShowtime
	if err := json.Unmarshal(b, &rs); err != nil {
		return ShowtimeInput{}, &Warning{Field: "showtime", Message: "malformed showtime: " + err.Error()}
	}
	if isBlank(rs.Date) || isBlank(rs.Time) {
		return ShowtimeInput{}, &Warning{Field: "showtime", Message: "missing date or time"}
	}
	st := ShowtimeInput{CinemaHall: DefaultHall}
	if !isBlank(rs.CinemaHall) {
		st.CinemaHall = strings.TrimSpace(*rs.CinemaHall)
	}
	var err error
	if st.Date, err = NormalizeDate(*rs.Date); err != nil {
		return ShowtimeInput{}, &Warning{Field: "date", Message: err.Error()}
	}
	if st.Time, err = NormalizeTime(*rs.Time); err != nil {
		return ShowtimeInput{}, &Warning{Field: "time", Message: err.Error()}
	}
	if err := validation.Validate.Struct(st); err != nil {
		return ShowtimeInput{}, fieldWarning(err)
	}
	return st, nil
}

// NormalizeDate checks that s is a calendar date in "2006-01-02" form.
func NormalizeDate(s string) (string, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d.Format(time.DateOnly), nil
}

// NormalizeTime accepts "15:04" or "15:04:05" and returns the "15:04"
// form.  Seconds are dropped.
func NormalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", time.TimeOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("invalid time %q, want HH:MM", s)
}

func isBlank(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }

func fieldWarning(err error) *Warning {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return &Warning{Field: ve[0].Field(), Message: validation.Message(ve[0])}
	}
	return &Warning{Field: "entry", Message: err.Error()}
}
