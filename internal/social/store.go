package social

import "context"

// Store describes persistence operations required by the service.
type Store interface {
	Users(ctx context.Context) UserStore
	Posts(ctx context.Context) PostStore
}

// UserStore manages identity records.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Count(ctx context.Context) (int, error)
	// SetRefreshToken overwrites the stored refresh token, unilaterally
	// invalidating any previously issued one.
	SetRefreshToken(ctx context.Context, id, token string) error
	ClearRefreshToken(ctx context.Context, id string) error
}

// PostStore manages posts, likes and share counters.
type PostStore interface {
	Create(ctx context.Context, p *Post) error
	// Find loads a post with derived like fields as seen by viewerID
	// (empty for anonymous viewers).
	Find(ctx context.Context, id, viewerID string) (*Post, error)
	List(ctx context.Context, viewerID string) ([]*Post, error)
	Count(ctx context.Context) (int, error)
	// ToggleLike likes the post when the viewer has not liked it, unlikes
	// otherwise. Each branch is a single atomic statement; concurrent
	// toggles on the same row are resolved by the database.
	ToggleLike(ctx context.Context, postID, userID string) (liked bool, likesCount int, err error)
	Likes(ctx context.Context, postID string) ([]PublicUser, error)
	IncrementShare(ctx context.Context, postID string) (int, error)
}
