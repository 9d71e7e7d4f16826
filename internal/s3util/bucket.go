// Package s3util wraps the S3 calls the wizard makes: listing style assets,
// presigning browser uploads of face photos and storing rendered results.
package s3util

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// API is the subset of *s3.Client used here.
type API interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	PutObjectTagging(ctx context.Context, in *s3.PutObjectTaggingInput, opts ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error)
}

// Bucket addresses one bucket, optionally scoped to a key prefix.
//
// PublicBaseURL is the origin objects are served from (a CloudFront
// distribution in production). When empty the virtual-hosted S3 URL is used.
type Bucket struct {
	Client        API
	Presign       *s3.PresignClient
	Name          string
	Prefix        string
	PublicBaseURL string
}

// key joins the bucket prefix and name.
func (b *Bucket) key(name string) string {
	if b.Prefix == "" {
		return name
	}
	return strings.TrimSuffix(b.Prefix, "/") + "/" + name
}

// PublicURL returns the browser-loadable URL for name.
func (b *Bucket) PublicURL(name string) string {
	escaped := escapeKey(b.key(name))
	if b.PublicBaseURL != "" {
		return strings.TrimSuffix(b.PublicBaseURL, "/") + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", b.Name, escaped)
}

// List returns the names of objects directly under Prefix, in S3 key order.
// Nested keys and folder markers are skipped.
func (b *Bucket) List(ctx context.Context) ([]string, error) {
	prefix := ""
	if b.Prefix != "" {
		prefix = strings.TrimSuffix(b.Prefix, "/") + "/"
	}

	p := s3.NewListObjectsV2Paginator(b.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.Name),
		Prefix: aws.String(prefix),
	})

	var names []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListObjectsV2 %s/%s: %w", b.Name, prefix, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			names = append(names, name)
		}
	}
	log.Debug().Str("bucket", b.Name).Str("prefix", prefix).Int("count", len(names)).Msg("Listed S3 objects")
	return names, nil
}

// PresignUpload returns a PUT URL the browser can upload name to. The
// content type is part of the signature.
func (b *Bucket) PresignUpload(ctx context.Context, name, contentType string, expiry time.Duration) (string, error) {
	if b.Presign == nil {
		return "", fmt.Errorf("presigner not configured for bucket %s", b.Name)
	}
	res, err := b.Presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.Name),
		Key:         aws.String(b.key(name)),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign PutObject: %w", err)
	}
	return res.URL, nil
}

// Put stores data under name with the project tag and returns its public URL.
func (b *Bucket) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	k := b.key(name)
	_, err := b.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.Name),
		Key:         aws.String(k),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Tagging:     ProjectTagging(),
	})
	if err != nil {
		return "", fmt.Errorf("PutObject %s: %w", k, err)
	}
	log.Debug().Str("bucket", b.Name).Str("key", k).Int("bytes", len(data)).Msg("Object uploaded")
	return b.PublicURL(name), nil
}

func escapeKey(k string) string {
	parts := strings.Split(k, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
