// Package blob stores restaurant image binaries. The backing bucket is a NATS
// JetStream object store; public URLs resolve through the /v1/media handler
// rather than pointing at the bucket directly.
package blob

import (
	"context"
	"errors"
	"io"

	"github.com/nats-io/nats.go"
)

var ErrNotFound = errors.New("blob not found")

type Store interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

type JetStreamStore struct {
	bucket nats.ObjectStore
}

func NewJetStreamStore(nc *nats.Conn, bucket string) (*JetStreamStore, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}

	os, err := js.ObjectStore(bucket)
	if errors.Is(err, nats.ErrStreamNotFound) || errors.Is(err, nats.ErrBucketNotFound) {
		os, err = js.CreateObjectStore(&nats.ObjectStoreConfig{Bucket: bucket})
	}
	if err != nil {
		return nil, err
	}

	return &JetStreamStore{bucket: os}, nil
}

func (s *JetStreamStore) Put(ctx context.Context, key string, contentType string, r io.Reader) error {
	meta := &nats.ObjectMeta{
		Name: key,
		Metadata: map[string]string{
			"content-type": contentType,
		},
	}
	_, err := s.bucket.Put(meta, r, nats.Context(ctx))
	return err
}

func (s *JetStreamStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	obj, err := s.bucket.Get(key, nats.Context(ctx))
	if errors.Is(err, nats.ErrObjectNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}

	contentType := "application/octet-stream"
	if info, err := obj.Info(); err == nil && info.Metadata != nil {
		if ct, ok := info.Metadata["content-type"]; ok {
			contentType = ct
		}
	}
	return obj, contentType, nil
}

func (s *JetStreamStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(key)
	if errors.Is(err, nats.ErrObjectNotFound) {
		return ErrNotFound
	}
	return err
}

var _ Store = (*JetStreamStore)(nil)
