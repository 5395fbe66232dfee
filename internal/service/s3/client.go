package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"transparencia/internal/domain"
)

// ErrObjectNotFound - объекта с таким ключом нет в бакете
var ErrObjectNotFound = errors.New("object not found")

// Client хранит файлы версий и вложений в S3-совместимом хранилище
type Client struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// NewClient создает клиента и проверяет доступ к бакету
func NewClient(ctx context.Context, conf *Config, logger *zap.Logger) (*Client, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	creds := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		conf.AccessKeyID,
		conf.SecretAccessKey,
		"",
	))

	client := s3.New(s3.Options{
		BaseEndpoint:     aws.String(conf.Endpoint),
		Region:           conf.Region,
		Credentials:      creds,
		UsePathStyle:     conf.UsePathStyle,
		RetryMode:        aws.RetryModeAdaptive,
		RetryMaxAttempts: 3,
	})

	c := &Client{
		client: client,
		bucket: conf.Bucket,
		logger: logger.With(zap.String("component", "s3")),
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(conf.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to access bucket %s: %w", conf.Bucket, err)
	}

	return c, nil
}

// Store загружает байты под ключом key и возвращает описание сохраненного файла
func (c *Client) Store(ctx context.Context, key string, data []byte) (*domain.StoredFile, error) {
	if key == "" || len(data) == 0 {
		return nil, fmt.Errorf("key and data are required")
	}

	stored := Describe(key, data)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(stored.Size),
		ContentType:   aws.String(stored.MimeType),
		Metadata:      map[string]string{"sha256": stored.Hash},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	c.logger.Debug("object stored", zap.String("key", key), zap.Int64("size", stored.Size))
	return stored, nil
}

// Open открывает объект на чтение; вызывающий закрывает поток
func (c *Client) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	return result.Body, nil
}

// Delete удаляет объект; отсутствующий объект считается удаленным
func (c *Client) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})

	var nsk *types.NotFound
	if err != nil && errors.As(err, &nsk) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check object existence: %w", err)
	}

	_, err = c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	return nil
}
