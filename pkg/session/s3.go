package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client the store uses.
// It is satisfied by *s3.Client from aws-sdk-go-v2.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

const s3ExpiresAtMetaKey = "relight-expires-at"

// S3Store persists snapshots as S3 objects. S3 has no native per-object
// TTL, so the expiration deadline is carried in object metadata and
// enforced on Load. Best used as cold storage behind a faster store.
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := session.NewS3Store(s3.NewFromConfig(cfg), "my-bucket")
type S3Store struct {
	client S3API
	bucket string
	prefix string
	closed bool
}

// S3StoreOption configures an S3Store.
type S3StoreOption func(*s3StoreConfig)

type s3StoreConfig struct {
	prefix string
}

// WithS3Prefix sets the object key prefix. Default: "sessions/".
func WithS3Prefix(prefix string) S3StoreOption {
	return func(c *s3StoreConfig) {
		c.prefix = prefix
	}
}

// NewS3Store creates an S3-backed snapshot store.
func NewS3Store(client S3API, bucket string, opts ...S3StoreOption) *S3Store {
	cfg := &s3StoreConfig{prefix: "sessions/"}
	for _, opt := range opts {
		opt(cfg)
	}
	return &S3Store{client: client, bucket: bucket, prefix: cfg.prefix}
}

func (s *S3Store) key(sessionID string) string {
	return s.prefix + sessionID
}

// Save writes a snapshot object with the deadline in its metadata.
func (s *S3Store) Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error {
	if s.closed {
		return ErrStoreClosed{}
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(sessionID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			s3ExpiresAtMetaKey: expiresAt.UTC().Format(time.RFC3339),
		},
	})
	return err
}

// Load fetches a snapshot object. Missing keys and objects past their
// metadata deadline report (nil, nil).
func (s *S3Store) Load(ctx context.Context, sessionID string) ([]byte, error) {
	if s.closed {
		return nil, ErrStoreClosed{}
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(sessionID)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil
		}
		return nil, err
	}
	defer out.Body.Close()

	if raw, ok := out.Metadata[s3ExpiresAtMetaKey]; ok {
		expiresAt, perr := time.Parse(time.RFC3339, raw)
		if perr == nil && time.Now().After(expiresAt) {
			return nil, nil
		}
	}

	return io.ReadAll(out.Body)
}

// Delete removes a snapshot object.
func (s *S3Store) Delete(ctx context.Context, sessionID string) error {
	if s.closed {
		return ErrStoreClosed{}
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(sessionID)),
	})
	return err
}

// Touch rewrites the object's metadata deadline with a self-copy.
func (s *S3Store) Touch(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if s.closed {
		return ErrStoreClosed{}
	}

	key := s.key(sessionID)
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(s.bucket + "/" + key),
		MetadataDirective: types.MetadataDirectiveReplace,
		Metadata: map[string]string{
			s3ExpiresAtMetaKey: expiresAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil
		}
	}
	return err
}

// SaveAll writes snapshots sequentially; S3 offers no batch put.
func (s *S3Store) SaveAll(ctx context.Context, sessions map[string]Record) error {
	if s.closed {
		return ErrStoreClosed{}
	}

	for id, rec := range sessions {
		if err := s.Save(ctx, id, rec.Data, rec.ExpiresAt); err != nil {
			return err
		}
	}
	return nil
}

// Close marks the store closed.
func (s *S3Store) Close() error {
	s.closed = true
	return nil
}
