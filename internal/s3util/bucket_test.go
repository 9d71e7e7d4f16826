package s3util

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	pages   [][]string
	listErr error
	inputs  []*s3.ListObjectsV2Input

	put    *s3.PutObjectInput
	body   []byte
	tagged *s3.PutObjectTaggingInput
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.inputs = append(f.inputs, in)
	if f.listErr != nil {
		return nil, f.listErr
	}
	idx := 0
	if in.ContinuationToken != nil {
		idx = int(aws.ToString(in.ContinuationToken)[0] - '0')
	}
	out := &s3.ListObjectsV2Output{}
	for _, k := range f.pages[idx] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	if idx+1 < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(string(rune('0' + idx + 1)))
	}
	return out, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) PutObjectTagging(ctx context.Context, in *s3.PutObjectTaggingInput, _ ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error) {
	f.tagged = in
	return &s3.PutObjectTaggingOutput{}, nil
}

func TestList_FlatNamesAcrossPages(t *testing.T) {
	f := &fakeS3{pages: [][]string{
		{"styles/", "styles/sunset.png", "styles/archive/old.png"},
		{"styles/bad.txt", "styles/neon-glow.jpg"},
	}}
	b := &Bucket{Client: f, Name: "assets", Prefix: "styles"}

	names, err := b.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset.png", "bad.txt", "neon-glow.jpg"}, names)
	require.Len(t, f.inputs, 2)
	assert.Equal(t, "styles/", aws.ToString(f.inputs[0].Prefix))
}

func TestList_Error(t *testing.T) {
	b := &Bucket{Client: &fakeS3{listErr: errors.New("AccessDenied")}, Name: "assets"}
	_, err := b.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestPublicURL(t *testing.T) {
	b := &Bucket{Name: "assets", Prefix: "styles/"}
	assert.Equal(t, "https://assets.s3.amazonaws.com/styles/neon%20glow.jpg", b.PublicURL("neon glow.jpg"))

	b.PublicBaseURL = "https://d111.cloudfront.net/"
	assert.Equal(t, "https://d111.cloudfront.net/styles/sunset.png", b.PublicURL("sunset.png"))
}

func TestPut_TagsAndReturnsURL(t *testing.T) {
	f := &fakeS3{}
	b := &Bucket{Client: f, Name: "results", Prefix: "thumbnails", PublicBaseURL: "https://cdn.example.com"}

	url, err := b.Put(context.Background(), "my-video-abc.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/thumbnails/my-video-abc.jpg", url)
	assert.Equal(t, "thumbnails/my-video-abc.jpg", aws.ToString(f.put.Key))
	assert.Equal(t, "Project=yt-thumbnail-wizard", aws.ToString(f.put.Tagging))
	assert.Equal(t, []byte("jpeg"), f.body)
}

func TestTagUploaded(t *testing.T) {
	f := &fakeS3{}
	b := &Bucket{Client: f, Name: "uploads"}

	require.NoError(t, b.TagUploaded(context.Background(), "faces/abc.jpg"))
	assert.Equal(t, "faces/abc.jpg", aws.ToString(f.tagged.Key))
	assert.Equal(t, "Project", aws.ToString(f.tagged.Tagging.TagSet[0].Key))
}

func TestPresignUpload_RequiresPresigner(t *testing.T) {
	b := &Bucket{Client: &fakeS3{}, Name: "uploads"}
	_, err := b.PresignUpload(context.Background(), "faces/a.jpg", "image/jpeg", 0)
	assert.Error(t, err)
}
