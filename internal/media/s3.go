package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/msomdec/book-exchange/internal/domain"
)

// S3Config configures an S3-compatible bucket (AWS S3, Cloudflare R2, MinIO).
type S3Config struct {
	Endpoint  string // empty for AWS
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicURL is the base URL objects are fetched from. When empty the
	// path-style endpoint URL is used.
	PublicURL string
}

// S3Store stores images as objects in a single bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

var _ domain.MediaStore = (*S3Store)(nil)

func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		Region:      region,
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		if cfg.Endpoint != "" {
			base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
		}
	}

	return &S3Store{client: client, bucket: cfg.Bucket, publicURL: base}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", upstream("put", key, err)
	}
	return s.publicURL + "/" + key, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil
		}
		return upstream("delete", key, err)
	}
	return nil
}
