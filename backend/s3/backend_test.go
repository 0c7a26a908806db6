package s3

import (
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/data"
)

func TestS3Backend_ObjectKey(t *testing.T) {
	tests := []struct {
		prefix   string
		location string
		expected string
	}{
		{"", "a/b.txt", "a/b.txt"},
		{"builds", "a/b.txt", "builds/a/b.txt"},
		{"/builds/", "a/b.txt", "builds/a/b.txt"},
	}

	for _, tt := range tests {
		sb, err := NewS3Backend(Config{Endpoint: "localhost:9000", Bucket: "test", Prefix: tt.prefix})
		if err != nil {
			t.Fatalf("NewS3Backend failed: %v", err)
		}

		if got := sb.objectKey(tt.location); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}

// TYPEDFS_S3 takes the form http(s)://key:secret@host:port/bucket
func TestS3Backend_Integration(t *testing.T) {
	address := os.Getenv("TYPEDFS_S3")
	if address == "" {
		t.Skip("TYPEDFS_S3 not set")
	}

	u, err := url.Parse(address)
	if err != nil {
		t.Fatalf("Invalid TYPEDFS_S3: %v", err)
	}
	secret, _ := u.User.Password()

	sb, err := NewS3Backend(Config{
		Endpoint:  u.Host,
		Bucket:    strings.Trim(u.Path, "/"),
		AccessKey: u.User.Username(),
		SecretKey: secret,
		UseSSL:    u.Scheme == "https",
		Prefix:    "typedfs-test",
	})
	if err != nil {
		t.Fatalf("NewS3Backend failed: %v", err)
	}
	if err := sb.Open(t.Context()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sb.Close(t.Context())

	if err := backend.Exercise(t.Context(), sb, data.NewID("integration")); err != nil {
		t.Error(err)
	}
}
