package model

// Movie represents a film in the catalog.  Movies are created by
// catalog ingestion or by staff, and are never deleted by the
// application.  Title is unique; optional columns are pointers so
// that nil represents NULL.
//
// Fields:
//  ID        – primary key identifier.
//  Title     – unique movie title.
//  Genre     – optional genre label.
//  Duration  – optional running time in minutes.
//  Rating    – optional rating with one decimal digit.
//  PosterURL – optional poster image URL.
type Movie struct {
    ID        uint64   // movies.id
    Title     string   // movies.title
    Genre     *string  // movies.genre (nullable)
    Duration  *int     // movies.duration_min (nullable)
    Rating    *float64 // movies.rating (nullable, DECIMAL(3,1))
    PosterURL *string  // movies.poster_url (nullable)
}

// Showtime is a scheduled screening of a movie in a cinema hall.
// Showtimes are removed together with their movie.  Date and Time
// are kept in their canonical text forms ("2006-01-02" and "15:04").
//
// Fields:
//  ID         – primary key identifier.
//  MovieID    – the movie being screened.
//  CinemaHall – label of the hall.
//  Date       – optional screening date.
//  Time       – optional screening time of day.
type Showtime struct {
    ID         uint64  // showtimes.id
    MovieID    uint64  // showtimes.movie_id
    CinemaHall string  // showtimes.cinema_hall
    Date       *string // showtimes.show_date (nullable)
    Time       *string // showtimes.show_time (nullable)
}

// MovieWithShowtimes groups a movie with all of its showtimes for
// browse responses.
type MovieWithShowtimes struct {
    Movie
    Showtimes []Showtime
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }
