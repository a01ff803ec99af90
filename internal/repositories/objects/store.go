// Package objects stores key pairs and identities as JSON objects in an
// S3-compatible bucket. Each Put is one PutObject call, so a record is
// replaced whole or not at all.
package objects

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/mailvault/internal/common"
	"github.com/dmitrijs2005/mailvault/vault/models"
)

// API is the part of *s3.Client the store needs.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Store struct {
	client API
	bucket string
	prefix string
}

func NewStore(client API, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) keyPairKey(userID string) string {
	return s.prefix + "keypairs/" + url.PathEscape(userID) + ".json"
}

func (s *Store) identityKey(userID string) string {
	return s.prefix + "identities/" + url.PathEscape(userID) + ".json"
}

func (s *Store) GetKeyPair(ctx context.Context, userID string) (*models.UserKeyPair, error) {
	pair := &models.UserKeyPair{}
	if err := s.get(ctx, s.keyPairKey(userID), pair); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *Store) PutKeyPair(ctx context.Context, pair *models.UserKeyPair) error {
	return s.put(ctx, s.keyPairKey(pair.UserID), pair)
}

func (s *Store) GetIdentity(ctx context.Context, userID string) (*models.MailIdentity, error) {
	identity := &models.MailIdentity{}
	if err := s.get(ctx, s.identityKey(userID), identity); err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *Store) PutIdentity(ctx context.Context, identity *models.MailIdentity) error {
	return s.put(ctx, s.identityKey(identity.UserID), identity)
}

func (s *Store) get(ctx context.Context, key string, v any) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("s3 read %s: %w", key, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("s3 decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("s3 encode %s: %w", key, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
