package social

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"vistagram.app/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users(context.Context) UserStore { return &userStore{db: s.db} }
func (s *PGStore) Posts(context.Context) PostStore { return &postStore{db: s.db} }

// User store ---------------------------------------------------------------

type userStore struct{ db *sql.DB }

func (s *userStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, username, email, password_hash) values($1,$2,$3,$4)`,
		u.ID, u.Username, u.Email, u.PasswordHash,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

const userColumns = `id, username, email, password_hash, coalesce(refresh_token, ''), created_at, updated_at`

func (s *userStore) Find(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, email)
	return scanUser(row)
}

func (s *userStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (s *userStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `select count(*) from users`).Scan(&n)
	return n, err
}

func (s *userStore) SetRefreshToken(ctx context.Context, id, token string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set refresh_token=$2, updated_at=now() where id=$1`, id, token)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *userStore) ClearRefreshToken(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set refresh_token=null, updated_at=now() where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Post store ---------------------------------------------------------------

type postStore struct{ db *sql.DB }

func (s *postStore) Create(ctx context.Context, p *Post) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	if p.CreatedAt.IsZero() {
		_, err := s.db.ExecContext(ctx,
			`insert into posts(id, user_id, image_url, caption, share_count) values($1,$2,$3,$4,$5)`,
			p.ID, p.UserID, p.ImageURL, p.Caption, p.ShareCount)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`insert into posts(id, user_id, image_url, caption, share_count, created_at) values($1,$2,$3,$4,$5,$6)`,
		p.ID, p.UserID, p.ImageURL, p.Caption, p.ShareCount, p.CreatedAt)
	return err
}

const postSelect = `
select p.id, p.user_id, u.username, p.image_url, p.caption, p.share_count, p.created_at,
       (select count(*) from post_likes l where l.post_id = p.id) as likes_count,
       exists(select 1 from post_likes l where l.post_id = p.id and l.user_id::text = $1) as liked
  from posts p
  join users u on u.id = p.user_id`

func (s *postStore) Find(ctx context.Context, id, viewerID string) (*Post, error) {
	row := s.db.QueryRowContext(ctx, postSelect+` where p.id = $2`, viewerID, id)
	return scanPost(row)
}

func (s *postStore) List(ctx context.Context, viewerID string) ([]*Post, error) {
	rows, err := s.db.QueryContext(ctx, postSelect+` order by p.created_at desc`, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s *postStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `select count(*) from posts`).Scan(&n)
	return n, err
}

func (s *postStore) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	if err := s.exists(ctx, postID); err != nil {
		return false, 0, err
	}

	res, err := s.db.ExecContext(ctx,
		`delete from post_likes where post_id=$1 and user_id=$2`, postID, userID)
	if err != nil {
		return false, 0, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, 0, err
	}

	liked := false
	if removed == 0 {
		_, err = s.db.ExecContext(ctx,
			`insert into post_likes(post_id, user_id) values($1,$2) on conflict do nothing`,
			postID, userID)
		if err != nil {
			return false, 0, err
		}
		liked = true
	}

	var count int
	err = s.db.QueryRowContext(ctx,
		`select count(*) from post_likes where post_id=$1`, postID).Scan(&count)
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (s *postStore) Likes(ctx context.Context, postID string) ([]PublicUser, error) {
	if err := s.exists(ctx, postID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select u.id, u.username, u.email, u.created_at
		   from post_likes l
		   join users u on u.id = l.user_id
		  where l.post_id = $1
		  order by l.created_at asc`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []PublicUser{}
	for rows.Next() {
		var u PublicUser
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *postStore) IncrementShare(ctx context.Context, postID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`update posts set share_count = share_count + 1 where id=$1 returning share_count`,
		postID).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return count, nil
}

func (s *postStore) exists(ctx context.Context, postID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `select 1 from posts where id=$1`, postID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func scanPost(row rowScanner) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.UserID, &p.Username, &p.ImageURL, &p.Caption,
		&p.ShareCount, &p.CreatedAt, &p.LikesCount, &p.LikedByViewer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Helpers ------------------------------------------------------------------

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// mapUniqueViolation converts a Postgres unique violation into a
// DuplicateError naming the colliding column.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	field := "field"
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		field = "username"
	case strings.Contains(pgErr.ConstraintName, "email"):
		field = "email"
	}
	return &DuplicateError{Field: field}
}
