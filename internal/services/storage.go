package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/harentsoaR/medbook-api/pkg/logging"
)

var (
	ErrStorageDisabled = errors.New("file storage not configured")
	ErrStorageUpload   = errors.New("file upload failed")
)

// S3API is the subset of the S3 client used by PictureStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PictureStore uploads profile pictures to a bucket and returns their public URL.
type PictureStore struct {
	client  S3API
	bucket  string
	baseURL string
	logger  *logging.Logger
}

// NewPictureStore returns a store whose uploads fail with ErrStorageDisabled
// when bucket or client is missing. baseURL defaults to the virtual-hosted S3 URL.
func NewPictureStore(client S3API, bucket, region, baseURL string, logger *logging.Logger) *PictureStore {
	if logger == nil {
		logger = logging.Default()
	}
	if baseURL == "" && bucket != "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &PictureStore{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (p *PictureStore) Enabled() bool {
	return p != nil && p.client != nil && p.bucket != ""
}

// Upload stores body under profile-pictures/<userID>/<uuid><ext>.
func (p *PictureStore) Upload(ctx context.Context, userID, contentType, ext string, size int64, body io.Reader) (string, error) {
	if !p.Enabled() {
		return "", ErrStorageDisabled
	}
	key := fmt.Sprintf("profile-pictures/%s/%s%s", userID, uuid.NewString(), ext)
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		p.logger.Error("profile picture upload failed", "error", err, "user_id", userID, "key", key)
		return "", fmt.Errorf("%w: %v", ErrStorageUpload, err)
	}
	p.logger.Info("profile picture uploaded", "user_id", userID, "key", key)
	return p.baseURL + "/" + key, nil
}
