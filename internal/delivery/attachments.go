package delivery

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

// S3API is the subset of the S3 client used for photo uploads.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Attachments uploads product photos to object storage.
type Attachments struct {
	client S3API
	bucket string
}

func NewAttachments(client S3API, bucket string) *Attachments {
	return &Attachments{client: client, bucket: bucket}
}

func (a *Attachments) Name() string { return NameAttachments }

// Deliver uploads every photo under leads/{id}/ and returns that prefix.
// A submission without photos is a no-op.
func (a *Attachments) Deliver(ctx context.Context, sub *leads.Submission) (string, error) {
	if len(sub.Attachments) == 0 {
		return "", nil
	}
	prefix := fmt.Sprintf("leads/%s/", sub.ID)
	for i, att := range sub.Attachments {
		key := ObjectKey(sub.ID, i, att.Filename)
		_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(a.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(att.Data),
			ContentType:   aws.String(att.ContentType),
			ContentLength: aws.Int64(int64(len(att.Data))),
		})
		if err != nil {
			return "", fmt.Errorf("delivery: s3 put %s: %w", key, err)
		}
	}
	return prefix, nil
}

// ObjectKey is leads/{id}/{index}-{filename} with the filename reduced to
// its base name.
func ObjectKey(id string, index int, filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "photo"
	}
	return fmt.Sprintf("leads/%s/%d-%s", id, index, name)
}
