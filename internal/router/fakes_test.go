package router_test

import (
    "context"
    "database/sql"
    "sort"
    "sync"
    "time"

    "github.com/iliyamo/movie-booking/internal/model"
    "github.com/iliyamo/movie-booking/internal/queue"
    "github.com/iliyamo/movie-booking/internal/repository"
    "github.com/iliyamo/movie-booking/internal/utils"
)

// In-memory stores mirroring the repository contracts, including their
// sentinel errors.

type memUsers struct {
    mu   sync.Mutex
    rows map[uint64]model.User
}

func (s *memUsers) Create(_ context.Context, email, name, password string, cost int) (uint64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    email = repository.NormalizeEmail(email)
    for _, u := range s.rows {
        if u.Email == email {
            return 0, repository.ErrEmailExists
        }
    }
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    id := uint64(len(s.rows) + 1)
    s.rows[id] = model.User{ID: id, Email: email, Name: name, PasswordHash: hash, IsActive: true}
    return id, nil
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    email = repository.NormalizeEmail(email)
    for _, u := range s.rows {
        if u.Email == email {
            return u, nil
        }
    }
    return model.User{}, sql.ErrNoRows
}

func (s *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    u, ok := s.rows[id]
    if !ok {
        return model.User{}, sql.ErrNoRows
    }
    return u, nil
}

func (s *memUsers) UpdateProfile(_ context.Context, id uint64, name, email string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    email = repository.NormalizeEmail(email)
    for _, u := range s.rows {
        if u.Email == email && u.ID != id {
            return repository.ErrEmailExists
        }
    }
    u, ok := s.rows[id]
    if !ok {
        return sql.ErrNoRows
    }
    u.Name, u.Email = name, email
    s.rows[id] = u
    return nil
}

func (s *memUsers) set(id uint64, fn func(u *model.User)) {
    s.mu.Lock()
    defer s.mu.Unlock()
    u := s.rows[id]
    fn(&u)
    s.rows[id] = u
}

type memTokens struct {
    mu   sync.Mutex
    rows map[string]model.RefreshToken
}

func (s *memTokens) StoreRefresh(_ context.Context, t model.RefreshToken) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.rows[t.TokenHash] = t
    return nil
}

func (s *memTokens) ValidateRefresh(_ context.Context, hash string, now time.Time) (uint64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    t, ok := s.rows[hash]
    if !ok || t.RevokedAt != nil || !t.ExpiresAt.After(now) {
        return 0, sql.ErrNoRows
    }
    return t.UserID, nil
}

func (s *memTokens) RevokeByHash(_ context.Context, hash string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if t, ok := s.rows[hash]; ok {
        now := time.Now()
        t.RevokedAt = &now
        s.rows[hash] = t
    }
    return nil
}

func (s *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    now := time.Now()
    for h, t := range s.rows {
        if t.UserID == userID && t.RevokedAt == nil {
            t.RevokedAt = &now
            s.rows[h] = t
        }
    }
    return nil
}

type memMovies struct {
    mu   sync.Mutex
    rows map[uint64]model.Movie
}

func (s *memMovies) insertLocked(m *model.Movie) {
    m.ID = uint64(len(s.rows) + 1)
    s.rows[m.ID] = *m
}

func (s *memMovies) GetOrCreate(_ context.Context, m *model.Movie) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, row := range s.rows {
        if row.Title == m.Title {
            *m = row
            return false, nil
        }
    }
    s.insertLocked(m)
    return true, nil
}

func (s *memMovies) Create(_ context.Context, m *model.Movie) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, row := range s.rows {
        if row.Title == m.Title {
            return repository.ErrTitleExists
        }
    }
    s.insertLocked(m)
    return nil
}

func (s *memMovies) GetByID(_ context.Context, id uint64) (*model.Movie, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    row, ok := s.rows[id]
    if !ok {
        return nil, repository.ErrMovieNotFound
    }
    return &row, nil
}

func (s *memMovies) GetByTitle(_ context.Context, title string) (*model.Movie, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, row := range s.rows {
        if row.Title == title {
            r := row
            return &r, nil
        }
    }
    return nil, repository.ErrMovieNotFound
}

func (s *memMovies) List(_ context.Context) ([]model.Movie, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.Movie, 0, len(s.rows))
    for _, row := range s.rows {
        out = append(out, row)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (s *memMovies) UpdatePosterURL(_ context.Context, id uint64, url string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    row, ok := s.rows[id]
    if !ok {
        return repository.ErrMovieNotFound
    }
    row.PosterURL = &url
    s.rows[id] = row
    return nil
}

type memShowtimes struct {
    mu   sync.Mutex
    rows []model.Showtime
}

func deref(s *string) string {
    if s == nil {
        return ""
    }
    return *s
}

func (s *memShowtimes) findLocked(st model.Showtime) (model.Showtime, bool) {
    for _, row := range s.rows {
        if row.MovieID == st.MovieID && row.CinemaHall == st.CinemaHall &&
            deref(row.Date) == deref(st.Date) && deref(row.Time) == deref(st.Time) {
            return row, true
        }
    }
    return model.Showtime{}, false
}

func (s *memShowtimes) GetOrCreate(_ context.Context, st *model.Showtime) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if row, ok := s.findLocked(*st); ok {
        st.ID = row.ID
        return false, nil
    }
    st.ID = uint64(len(s.rows) + 1)
    s.rows = append(s.rows, *st)
    return true, nil
}

func (s *memShowtimes) Create(_ context.Context, st *model.Showtime) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.findLocked(*st); ok {
        return repository.ErrShowtimeExists
    }
    st.ID = uint64(len(s.rows) + 1)
    s.rows = append(s.rows, *st)
    return nil
}

func (s *memShowtimes) GetByID(_ context.Context, id uint64) (*model.Showtime, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, row := range s.rows {
        if row.ID == id {
            r := row
            return &r, nil
        }
    }
    return nil, repository.ErrShowtimeNotFound
}

func (s *memShowtimes) ListByMovie(_ context.Context, movieID uint64) ([]model.Showtime, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.Showtime
    for _, row := range s.rows {
        if row.MovieID == movieID {
            out = append(out, row)
        }
    }
    return out, nil
}

func (s *memShowtimes) ListAll(_ context.Context) ([]model.Showtime, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return append([]model.Showtime(nil), s.rows...), nil
}

type memBookings struct {
    mu        sync.Mutex
    rows      []model.Booking
    nextID    uint64
    showtimes *memShowtimes
    movies    *memMovies
}

func (s *memBookings) Create(_ context.Context, b *model.Booking) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.nextID++
    b.ID = s.nextID
    b.CreatedAt = time.Now().UTC()
    s.rows = append(s.rows, *b)
    return nil
}

func (s *memBookings) ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.BookingDetail
    for i := len(s.rows) - 1; i >= 0; i-- {
        b := s.rows[i]
        if b.UserID != userID {
            continue
        }
        st, err := s.showtimes.GetByID(ctx, b.ShowtimeID)
        if err != nil {
            return nil, err
        }
        m, err := s.movies.GetByID(ctx, st.MovieID)
        if err != nil {
            return nil, err
        }
        out = append(out, model.BookingDetail{
            Booking: b, MovieID: m.ID, MovieTitle: m.Title,
            CinemaHall: st.CinemaHall, Date: st.Date, Time: st.Time,
        })
    }
    return out, nil
}

func (s *memBookings) DeleteForUser(_ context.Context, id, userID uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    for i, b := range s.rows {
        if b.ID != id {
            continue
        }
        if b.UserID != userID {
            return repository.ErrForbidden
        }
        s.rows = append(s.rows[:i], s.rows[i+1:]...)
        return nil
    }
    return repository.ErrBookingNotFound
}

func (s *memBookings) DeleteAllForUser(_ context.Context, userID uint64) (int64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    kept := s.rows[:0]
    var n int64
    for _, b := range s.rows {
        if b.UserID == userID {
            n++
            continue
        }
        kept = append(kept, b)
    }
    s.rows = kept
    return n, nil
}

type recordingNotifier struct {
    mu     sync.Mutex
    events []queue.BookingCreatedEvent
}

func (n *recordingNotifier) PublishBookingCreated(_ context.Context, ev queue.BookingCreatedEvent) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    n.events = append(n.events, ev)
    return nil
}
