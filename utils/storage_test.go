package utils

import (
	"context"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNameFor(t *testing.T) {
	name, ct := objectNameFor("/users/alice/avatar/", &multipart.FileHeader{Filename: "Me.PNG"})
	assert.True(t, strings.HasPrefix(name, "users/alice/avatar/"), name)
	assert.True(t, strings.HasSuffix(name, ".png"), name)
	assert.Equal(t, "image/png", ct)

	other, _ := objectNameFor("users/alice/avatar", &multipart.FileHeader{Filename: "Me.PNG"})
	assert.NotEqual(t, name, other)

	fh := &multipart.FileHeader{Filename: "blob", Header: textproto.MIMEHeader{"Content-Type": {"image/webp"}}}
	name, ct = objectNameFor("x", fh)
	assert.True(t, strings.HasSuffix(name, ".bin"))
	assert.Equal(t, "image/webp", ct)
}

func TestR2PublicURL(t *testing.T) {
	r := &R2Client{Bucket: "media", PublicDomain: "https://pub.example.com/"}
	assert.Equal(t, "https://pub.example.com/media/users/a.png", r.publicURL("users/a.png"))
}

func TestUploaderConfigRequired(t *testing.T) {
	_, err := NewR2Client(context.Background(), R2Config{Bucket: "media"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R2_ACCESS_KEY_ID")

	_, err = NewGCSUploader(context.Background(), GCSConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GCS_BUCKET")
}
