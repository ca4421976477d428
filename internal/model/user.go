package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  Name         – display name.
//  PasswordHash – bcrypt hashed password.
//  IsActive     – whether the account may sign in and book.
//  IsStaff      – whether the account may manage the catalog.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    Name         string    // users.name
    PasswordHash string    // users.password_hash
    IsActive     bool      // users.is_active
    IsStaff      bool      // users.is_staff
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Principal is the resolved, authenticated caller of a request.  It is
// built by the principal middleware from the access token and the
// current users row, and is passed explicitly into domain operations.
type Principal struct {
    UserID   uint64
    Email    string
    Name     string
    IsActive bool
    IsStaff  bool
}

// Principal returns the principal view of the user.
func (u User) Principal() *Principal {
    return &Principal{
        UserID:   u.ID,
        Email:    u.Email,
        Name:     u.Name,
        IsActive: u.IsActive,
        IsStaff:  u.IsStaff,
    }
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
