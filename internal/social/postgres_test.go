package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestUserCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into users").
		WithArgs(sqlmock.AnyArg(), "alice", "a@x.com", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	store := NewPGStore(db)
	err = store.Users(context.Background()).Create(context.Background(), &User{
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "hash",
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	var dup *DuplicateError
	if !errors.As(err, &dup) || dup.Field != "email" {
		t.Fatalf("expected duplicate email field, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserFindNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from users where id=").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	store := NewPGStore(db)
	_, err = store.Users(context.Background()).Find(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetRefreshTokenRequiresRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update users set refresh_token=").
		WithArgs("u1", "token").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("update users set refresh_token=").
		WithArgs("missing", "token").
		WillReturnResult(sqlmock.NewResult(0, 0))

	users := NewPGStore(db).Users(context.Background())
	if err := users.SetRefreshToken(context.Background(), "u1", "token"); err != nil {
		t.Fatalf("SetRefreshToken: %v", err)
	}
	if err := users.SetRefreshToken(context.Background(), "missing", "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestToggleLikeLikesWhenNotLiked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select 1 from posts where id=").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec("delete from post_likes").
		WithArgs("p1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into post_likes").
		WithArgs("p1", "u1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("select count").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	posts := NewPGStore(db).Posts(context.Background())
	liked, count, err := posts.ToggleLike(context.Background(), "p1", "u1")
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if !liked || count != 3 {
		t.Fatalf("expected liked=true count=3, got liked=%v count=%d", liked, count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestToggleLikeUnlikesWhenAlreadyLiked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select 1 from posts where id=").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec("delete from post_likes").
		WithArgs("p1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("select count").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	posts := NewPGStore(db).Posts(context.Background())
	liked, count, err := posts.ToggleLike(context.Background(), "p1", "u1")
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if liked || count != 1 {
		t.Fatalf("expected liked=false count=1, got liked=%v count=%d", liked, count)
	}
}

func TestToggleLikeMissingPost(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select 1 from posts where id=").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	posts := NewPGStore(db).Posts(context.Background())
	if _, _, err := posts.ToggleLike(context.Background(), "ghost", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementShare(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("update posts set share_count").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"share_count"}).AddRow(8))
	mock.ExpectQuery("update posts set share_count").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"share_count"}))

	posts := NewPGStore(db).Posts(context.Background())
	count, err := posts.IncrementShare(context.Background(), "p1")
	if err != nil || count != 8 {
		t.Fatalf("expected count=8, got count=%d err=%v", count, err)
	}
	if _, err := posts.IncrementShare(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostListScansDerivedFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "username", "image_url", "caption", "share_count", "created_at", "likes_count", "liked",
	}).AddRow("p2", "u1", "alice", "https://img/2", "second", 4, created, 2, true).
		AddRow("p1", "u1", "alice", "https://img/1", "first", 0, created.Add(-time.Hour), 0, false)

	mock.ExpectQuery("select p.id, p.user_id, u.username").
		WithArgs("u1").
		WillReturnRows(rows)

	posts := NewPGStore(db).Posts(context.Background())
	list, err := posts.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(list))
	}
	if !list[0].LikedByViewer || list[0].LikesCount != 2 {
		t.Fatalf("derived fields not scanned: %+v", list[0])
	}
	if list[1].LikedByViewer {
		t.Fatalf("expected second post unliked: %+v", list[1])
	}
}
