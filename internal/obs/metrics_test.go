package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/metrics":                  "/metrics",
		"/posts":                    "/posts",
		"/posts/01J5ABCDEF":         "/posts/:id",
		"/posts/01J5ABCDEF/like":    "/posts/:id/like",
		"/posts/01J5ABCDEF/likes":   "/posts/:id/likes",
		"/posts/01J5ABCDEF/share":   "/posts/:id/share",
		"/posts/01J5ABCDEF/extra":   "/posts/01J5ABCDEF/extra",
		"/users/42":                 "/users/:id",
		"/auth/login":               "/auth/login",
		"/cron/status?verbose=true": "/cron/status",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
