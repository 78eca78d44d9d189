package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"

	"github.com/seatrack/seatrack/backend/go-services/internal/config"
)

func TestAvatarKey(t *testing.T) {
	k1, err := AvatarKey(7, "image/PNG")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(k1, "avatars/7/"))
	require.True(t, strings.HasSuffix(k1, ".png"))

	k2, err := AvatarKey(7, "image/png")
	require.NoError(t, err)
	require.NotEqual(t, k1, k2)

	_, err = AvatarKey(7, "application/x-sh")
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestNewMinIOStorage_RequiresEndpoint(t *testing.T) {
	_, err := NewMinIOStorage(context.Background(), config.MinIOConfig{})
	require.Error(t, err)
}

func TestPutAvatar_RejectsBeforeNetwork(t *testing.T) {
	mc, err := minio.New("127.0.0.1:1", &minio.Options{Creds: credentials.NewStaticV4("key", "secret", "")})
	require.NoError(t, err)
	s := &MinIOStorage{client: mc, bucket: "avatars"}

	_, err = s.PutAvatar(context.Background(), 1, strings.NewReader("x"), MaxAvatarSize+1, "image/png")
	require.Error(t, err)
	_, err = s.PutAvatar(context.Background(), 1, strings.NewReader("x"), 1, "text/plain")
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestPresignedURL(t *testing.T) {
	mc, err := minio.New("minio.local:9000", &minio.Options{Creds: credentials.NewStaticV4("key", "secret", ""), Region: "us-east-1"})
	require.NoError(t, err)
	s := &MinIOStorage{client: mc, bucket: "avatars"}

	u, err := s.PresignedURL(context.Background(), "avatars/1/a.png", 5*time.Minute)
	require.NoError(t, err)
	require.Contains(t, u, "minio.local:9000/avatars/avatars/1/a.png")
	require.Contains(t, u, "X-Amz-Expires=300")
}
