package s3util

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	projectTagKey   = "Project"
	projectTagValue = "yt-thumbnail-wizard"
)

// ProjectTagging returns the URL-encoded cost-allocation tag string for
// PutObjectInput.Tagging.
func ProjectTagging() *string {
	return aws.String(projectTagKey + "=" + projectTagValue)
}

// TagUploaded applies the cost-allocation tag to an object the browser
// uploaded through a presigned URL, which cannot carry tags itself.
func (b *Bucket) TagUploaded(ctx context.Context, name string) error {
	_, err := b.Client.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket: aws.String(b.Name),
		Key:    aws.String(b.key(name)),
		Tagging: &s3types.Tagging{
			TagSet: []s3types.Tag{{Key: aws.String(projectTagKey), Value: aws.String(projectTagValue)}},
		},
	})
	if err != nil {
		return fmt.Errorf("PutObjectTagging: %w", err)
	}
	return nil
}
