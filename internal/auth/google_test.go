package auth

import "testing"

func TestHighResPictureURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "standard 96px rendition",
			url:  "https://lh3.googleusercontent.com/a/photo=s96-c",
			want: "https://lh3.googleusercontent.com/a/photo=s400-c",
		},
		{
			name: "already sized",
			url:  "https://lh3.googleusercontent.com/a/photo=s200",
			want: "https://lh3.googleusercontent.com/a/photo=s200",
		},
		{
			name: "existing query string",
			url:  "https://example.com/photo?v=1",
			want: "https://example.com/photo?v=1&sz=400",
		},
		{
			name: "bare url",
			url:  "https://example.com/photo",
			want: "https://example.com/photo?sz=400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := highResPictureURL(tt.url); got != tt.want {
				t.Errorf("highResPictureURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
