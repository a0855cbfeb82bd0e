package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DocumentStore holds materialized process documents. Keys follow
// {process_code}/{document_code}.{ext}; the resulting public URL replaces the
// partner's expiring URL.
type DocumentStore interface {
	UploadDocument(ctx context.Context, key string, data []byte) (string, error)
}

type storageClient struct {
	bucket string
	region string
	client *s3.Client
}

func NewDocumentStore() (DocumentStore, error) {
	region := os.Getenv("AWS_S3_REGION")
	bucket := os.Getenv("S3_BUCKET_NAME")
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg)
	return &storageClient{
		bucket: bucket,
		region: region,
		client: client,
	}, nil
}

// UploadDocument stores the object and returns its durable public URL.
func (s *storageClient) UploadDocument(ctx context.Context, key string, data []byte) (string, error) {
	if key == "" {
		return "", errors.New("object key is empty")
	}

	mimeType := mime.TypeByExtension(filepath.Ext(key))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: &mimeType,
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
