package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPutter struct {
	input *s3.PutObjectInput
	body  []byte
}

func (r *recordingPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	r.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	r.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestR2ArchivePutsJSON(t *testing.T) {
	putter := &recordingPutter{}
	archive := NewR2Service(putter, "raw-analytics")

	key := archiveKey(models.PlatformYoutube, 42, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, archive.Put(context.Background(), key, []byte(`{"platform":"youtube"}`)))

	assert.Equal(t, "analytics/youtube/42/20260102T030405Z.json", key)
	assert.Equal(t, "raw-analytics", aws.ToString(putter.input.Bucket))
	assert.Equal(t, key, aws.ToString(putter.input.Key))
	assert.Equal(t, "application/json", aws.ToString(putter.input.ContentType))
	assert.JSONEq(t, `{"platform":"youtube"}`, string(putter.body))
}
