package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the part of *s3.Client used by S3Sink.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads records to an S3 bucket as <prefix><root>/<seq>.html and
// <prefix><root>/<seq>.json.
//
// Example usage:
//
//	client := snapshot.NewS3Client("eu-west-1", "")
//	sink := snapshot.NewS3Sink(client, "my-bucket", "commits/")
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Sink creates an S3Sink.
func NewS3Sink(client PutObjectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Client creates an S3 client for region. Credentials come from the
// standard AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN
// environment variables. A non-empty endpoint selects an S3-compatible
// service with path-style addressing.
func NewS3Client(region, endpoint string) *s3.Client {
	opts := s3.Options{
		Region:      region,
		Credentials: aws.CredentialsProviderFunc(envCredentials),
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, fmt.Errorf("snapshot: AWS credentials not set in the environment")
	}
	return creds, nil
}

func (s *S3Sink) Put(ctx context.Context, rec Record) error {
	doc, err := rec.JSON()
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", rec.Name(), err)
	}
	meta := map[string]string{
		"commit-id": rec.CommitID,
		"root-id":   rec.RootID,
		"seq":       strconv.FormatUint(rec.Seq, 10),
		"lanes":     rec.Lanes,
	}
	objects := []struct {
		ext         string
		contentType string
		body        []byte
	}{
		{".json", "application/json", doc},
		{".html", "text/html; charset=utf-8", []byte(rec.HTML)},
	}
	for _, obj := range objects {
		key := s.prefix + rec.Name() + obj.ext
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(obj.body),
			ContentType: aws.String(obj.contentType),
			Metadata:    meta,
		})
		if err != nil {
			return fmt.Errorf("s3 upload of %s failed: %w", key, err)
		}
	}
	return nil
}
