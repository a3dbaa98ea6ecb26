package social

import "time"

// User is an identity record. PasswordHash and RefreshToken never leave the
// store layer in API responses; RefreshToken is the single-slot session
// mirror — at most one refresh token is valid per user at any time.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	RefreshToken string // empty means no active refresh token
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips secret fields.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// Post is an image post. LikesCount and LikedByViewer are derived per query;
// LikedByViewer is always false for anonymous viewers.
type Post struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Username       string    `json:"username"`
	ImageURL       string    `json:"imageUrl"`
	Caption        string    `json:"caption"`
	ShareCount     int       `json:"shareCount"`
	LikesCount     int       `json:"likesCount"`
	LikedByViewer  bool      `json:"likedByUser"`
	CreatedAt      time.Time `json:"createdAt"`
}
