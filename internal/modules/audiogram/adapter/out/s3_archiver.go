package out

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	audiogramout "audiometer/internal/modules/audiogram/port/out"
)

const archiveTimeout = 30 * time.Second

type S3Options struct {
	Bucket          string
	Prefix          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Archiver uploads finalized record files to an S3 compatible bucket.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Archiver(opts S3Options) audiogramout.Archiver {
	creds := credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")
	region := opts.Region
	if region == "" {
		region = "auto"
	}
	options := []func(*s3.Options){
		func(o *s3.Options) {
			o.Credentials = creds
			o.Region = region
		},
	}
	if opts.Endpoint != "" {
		options = append(options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}
	return &S3Archiver{
		client: s3.New(s3.Options{}, options...),
		bucket: opts.Bucket,
		prefix: opts.Prefix,
	}
}

func (a *S3Archiver) Archive(ctx context.Context, key, filePath string) error {
	payload, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read record for archive: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(path.Join(a.prefix, key)),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("upload record: %w", err)
	}
	return nil
}
