package middleware

import "testing"

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/users/u-123/standing", "/api/users/:userId/standing"},
		{"/api/users/", "/api/users/"},
		{"/api/feed", "/api/feed"},
		{"/health/live", "/health/live"},
	}
	for _, tt := range tests {
		if got := sanitizePath(tt.path); got != tt.want {
			t.Errorf("sanitizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestHashIPForLog(t *testing.T) {
	h := hashIPForLog("203.0.113.7")
	if len(h) != 12 {
		t.Errorf("len = %d, want 12", len(h))
	}
	if h == hashIPForLog("203.0.113.8") {
		t.Error("different IPs should hash differently")
	}
}
