package httpapi

import (
	"net/http"
	"strings"

	"vistagram.app/internal/audit"
	"vistagram.app/internal/auth"
	"vistagram.app/internal/social"
)

const maxUploadBytes = 10 << 20

func (a *API) handlePostsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.requireAuth(a.createPost)(w, r)
	case http.MethodGet:
		a.optionalAuth(a.listPosts)(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handlePostResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/posts/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch {
	case strings.HasSuffix(path, "/like"):
		id := strings.TrimSuffix(path, "/like")
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.requireAuth(func(w http.ResponseWriter, r *http.Request) {
			a.toggleLike(w, r, id)
		})(w, r)
	case strings.HasSuffix(path, "/likes"):
		id := strings.TrimSuffix(path, "/likes")
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listLikes(w, r, id)
	case strings.HasSuffix(path, "/share"):
		id := strings.TrimSuffix(path, "/share")
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.sharePost(w, r, id)
	case strings.Contains(path, "/"):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.optionalAuth(func(w http.ResponseWriter, r *http.Request) {
			a.getPost(w, r, path)
		})(w, r)
	}
}

func (a *API) createPost(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "Image is required")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Image is required")
		return
	}
	defer file.Close()

	imageURL, err := a.uploader.UploadStream(r.Context(), file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	posts := a.store.Posts(r.Context())
	post := &social.Post{
		UserID:   userID,
		ImageURL: imageURL,
		Caption:  r.FormValue("caption"),
	}
	if err := posts.Create(r.Context(), post); err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	// Reload to pick up the author username and derived fields.
	created, err := posts.Find(r.Context(), post.ID, userID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	_ = audit.LogEvent(r.Context(), "post.created", map[string]any{
		"post_id": created.ID,
		"user_id": userID,
	})

	writeJSON(w, http.StatusCreated, created)
}

func (a *API) listPosts(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	posts, err := a.store.Posts(r.Context()).List(r.Context(), viewerID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if posts == nil {
		posts = []*social.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (a *API) getPost(w http.ResponseWriter, r *http.Request, id string) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	post, err := a.store.Posts(r.Context()).Find(r.Context(), id, viewerID)
	if err != nil {
		handleStoreError(w, r, err, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *API) toggleLike(w http.ResponseWriter, r *http.Request, id string) {
	userID, _ := auth.UserIDFromContext(r.Context())
	liked, likesCount, err := a.store.Posts(r.Context()).ToggleLike(r.Context(), id, userID)
	if err != nil {
		handleStoreError(w, r, err, "Post not found")
		return
	}

	message := "Post unliked"
	if liked {
		message = "Post liked"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    message,
		"liked":      liked,
		"likesCount": likesCount,
	})
}

func (a *API) listLikes(w http.ResponseWriter, r *http.Request, id string) {
	users, err := a.store.Posts(r.Context()).Likes(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"likesCount": len(users),
		"users":      users,
	})
}

func (a *API) sharePost(w http.ResponseWriter, r *http.Request, id string) {
	shareCount, err := a.store.Posts(r.Context()).IncrementShare(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Post shared",
		"shareCount": shareCount,
	})
}
