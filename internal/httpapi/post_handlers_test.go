package httpapi

import (
	"net/http"
	"testing"

	"vistagram.app/internal/social"
)

func TestCreatePostRequiresAuth(t *testing.T) {
	c := newTestAPI(t)

	resp := c.postMultipart("/posts", nil, "image", "photo.jpg", []byte("jpegdata"), nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreatePostRequiresImage(t *testing.T) {
	c := newTestAPI(t)
	c.register("amelia", "amelia@example.com", "password123")
	access, _ := c.login("amelia@example.com", "password123")

	resp := c.postMultipart("/posts", map[string]string{"caption": "no image"}, "", "", nil, bearerHeader(access))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] != "Image is required" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestCreatePostUploadsImage(t *testing.T) {
	c := newTestAPI(t)
	c.register("amelia", "amelia@example.com", "password123")
	access, _ := c.login("amelia@example.com", "password123")

	resp := c.postMultipart("/posts", map[string]string{"caption": "golden hour"},
		"image", "photo.jpg", []byte("jpegdata"), bearerHeader(access))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	post := decode[social.Post](t, resp)
	if post.ID == "" {
		t.Fatal("expected post id")
	}
	if post.Username != "amelia" {
		t.Fatalf("unexpected author: %q", post.Username)
	}
	if post.Caption != "golden hour" {
		t.Fatalf("unexpected caption: %q", post.Caption)
	}
	if post.ImageURL != "https://cdn.local/vistagram-posts/object.jpg" {
		t.Fatalf("expected hosted image url, got %q", post.ImageURL)
	}
}

func TestListPostsAnonymous(t *testing.T) {
	c := newTestAPI(t)
	c.register("amelia", "amelia@example.com", "password123")
	access, _ := c.login("amelia@example.com", "password123")

	created := c.postMultipart("/posts", map[string]string{"caption": "first"},
		"image", "photo.jpg", []byte("jpegdata"), bearerHeader(access))
	post := decode[social.Post](t, created)

	like := c.post("/posts/"+post.ID+"/like", nil, bearerHeader(access))
	like.Body.Close()

	resp := c.get("/posts", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	posts := decode[[]social.Post](t, resp)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if posts[0].LikesCount != 1 {
		t.Fatalf("expected likes count 1, got %d", posts[0].LikesCount)
	}
	// Anonymous viewers never see likedByUser true.
	if posts[0].LikedByViewer {
		t.Fatal("anonymous viewer reported as having liked the post")
	}
}

func TestListPostsPersonalized(t *testing.T) {
	c := newTestAPI(t)
	c.register("amelia", "amelia@example.com", "password123")
	access, _ := c.login("amelia@example.com", "password123")

	created := c.postMultipart("/posts", map[string]string{"caption": "first"},
		"image", "photo.jpg", []byte("jpegdata"), bearerHeader(access))
	post := decode[social.Post](t, created)

	like := c.post("/posts/"+post.ID+"/like", nil, bearerHeader(access))
	like.Body.Close()

	resp := c.get("/posts", bearerHeader(access))
	posts := decode[[]social.Post](t, resp)
	if len(posts) != 1 || !posts[0].LikedByViewer {
		t.Fatalf("expected viewer's like to be reflected, got %+v", posts)
	}
}

func TestListPostsIgnoresInvalidToken(t *testing.T) {
	c := newTestAPI(t)

	// Read paths degrade to anonymous on bad credentials instead of 401.
	resp := c.get("/posts", bearerHeader("garbage"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	posts := decode[[]social.Post](t, resp)
	if len(posts) != 0 {
		t.Fatalf("expected empty feed, got %d posts", len(posts))
	}
}

func TestGetPostNotFound(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/posts/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] != "Post not found" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestToggleLikeRoundTrip(t *testing.T) {
	c := newTestAPI(t)
	c.register("amelia", "amelia@example.com", "password123")
	access, _ := c.login("amelia@example.com", "password123")

	created := c.postMultipart("/posts", map[string]string{},
		"image", "photo.jpg", []byte("jpegdata"), bearerHeader(access))
	post := decode[social.Post](t, created)

	first := c.post("/posts/"+post.ID+"/like", nil, bearerHeader(access))
	if first.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.StatusCode)
	}
	firstBody := decode[map[string]any](t, first)
	if firstBody["message"] != "Post liked" || firstBody["liked"] != true {
		t.Fatalf("unexpected like response: %v", firstBody)
	}
	if firstBody["likesCount"] != float64(1) {
		t.Fatalf("expected likes count 1, got %v", firstBody["likesCount"])
	}

	second := c.post("/posts/"+post.ID+"/like", nil, bearerHeader(access))
	secondBody := decode[map[string]any](t, second)
	if secondBody["message"] != "Post unliked" || secondBody["liked"] != false {
		t.Fatalf("unexpected unlike response: %v", secondBody)
	}
	if secondBody["likesCount"] != float64(0) {
		t.Fatalf("expected likes count 0, got %v", secondBody["likesCount"])
	}
}

func TestToggleLikeMissingPost(t *testing.T) {
	c := newTestAPI(t)
	c.register("amelia", "amelia@example.com", "password123")
	access, _ := c.login("amelia@example.com", "password123")

	resp := c.post("/posts/missing/like", nil, bearerHeader(access))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListLikes(t *testing.T) {
	c := newTestAPI(t)
	c.register("amelia", "amelia@example.com", "password123")
	access, _ := c.login("amelia@example.com", "password123")

	created := c.postMultipart("/posts", map[string]string{},
		"image", "photo.jpg", []byte("jpegdata"), bearerHeader(access))
	post := decode[social.Post](t, created)

	like := c.post("/posts/"+post.ID+"/like", nil, bearerHeader(access))
	like.Body.Close()

	resp := c.get("/posts/"+post.ID+"/likes", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["likesCount"] != float64(1) {
		t.Fatalf("expected likes count 1, got %v", body["likesCount"])
	}
	users, ok := body["users"].([]any)
	if !ok || len(users) != 1 {
		t.Fatalf("expected one liking user, got %v", body["users"])
	}
	liker, _ := users[0].(map[string]any)
	if liker["username"] != "amelia" {
		t.Fatalf("unexpected liker: %v", liker)
	}
}

func TestSharePost(t *testing.T) {
	c := newTestAPI(t)
	c.register("amelia", "amelia@example.com", "password123")
	access, _ := c.login("amelia@example.com", "password123")

	created := c.postMultipart("/posts", map[string]string{},
		"image", "photo.jpg", []byte("jpegdata"), bearerHeader(access))
	post := decode[social.Post](t, created)

	// Sharing needs no authentication.
	resp := c.post("/posts/"+post.ID+"/share", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["message"] != "Post shared" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if body["shareCount"] != float64(1) {
		t.Fatalf("expected share count 1, got %v", body["shareCount"])
	}

	again := c.post("/posts/"+post.ID+"/share", nil, nil)
	againBody := decode[map[string]any](t, again)
	if againBody["shareCount"] != float64(2) {
		t.Fatalf("expected share count 2, got %v", againBody["shareCount"])
	}
}

func TestShareMissingPost(t *testing.T) {
	c := newTestAPI(t)

	resp := c.post("/posts/missing/share", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetUserProfile(t *testing.T) {
	c := newTestAPI(t)
	userID := c.register("amelia", "amelia@example.com", "password123")

	resp := c.get("/users/"+userID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["username"] != "amelia" {
		t.Fatalf("unexpected username: %v", body["username"])
	}
	if _, leaked := body["password"]; leaked {
		t.Fatal("profile leaked password field")
	}
	if _, leaked := body["refreshToken"]; leaked {
		t.Fatal("profile leaked refresh token")
	}
}

func TestGetUserProfileNotFound(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/users/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] != "User not found" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}
