// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/rankvote/models"
)

// S3Config selects the bucket that receives archived run files.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional; e.g. MinIO
	Prefix    string
	PathStyle bool

	// Static credentials; when empty the default chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Recorder buffers each run as a JSON array and uploads it as one object
// when the run ends. Objects use the same layout as FileRecorder files.
type S3Recorder struct {
	client objectPutter
	bucket string
	prefix string

	mu      sync.Mutex
	buffers map[int]*runBuffer
}

type runBuffer struct {
	buf   bytes.Buffer
	steps int
}

// NewS3Recorder loads AWS configuration from the environment. Static
// credentials in cfg take precedence over the default credential chain.
func NewS3Recorder(ctx context.Context, cfg S3Config) (*S3Recorder, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Recorder(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Recorder(client objectPutter, bucket, prefix string) *S3Recorder {
	if prefix == "" {
		prefix = "runs/"
	}
	return &S3Recorder{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		buffers: make(map[int]*runBuffer),
	}
}

// Key returns the object key of a run.
func (r *S3Recorder) Key(runID int) string {
	return r.prefix + RunFileName(runID)
}

func (r *S3Recorder) StartRun(_ context.Context, runID int, _ models.CandidateSet) error {
	rb := &runBuffer{}
	rb.buf.WriteString("[")

	r.mu.Lock()
	r.buffers[runID] = rb
	r.mu.Unlock()
	return nil
}

func (r *S3Recorder) get(runID int) (*runBuffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rb, ok := r.buffers[runID]
	if !ok {
		return nil, fmt.Errorf("%w: run %d", ErrRunNotStarted, runID)
	}
	return rb, nil
}

func (r *S3Recorder) AppendStep(_ context.Context, rec models.StepRecord) error {
	rb, err := r.get(rec.RunID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode step %d: %w", rec.Step, err)
	}
	if rb.steps > 0 {
		rb.buf.WriteString(",\n")
	}
	rb.buf.Write(data)
	rb.steps++
	return nil
}

func (r *S3Recorder) EndRun(ctx context.Context, runID int) error {
	rb, err := r.get(runID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.buffers, runID)
	r.mu.Unlock()

	rb.buf.WriteString("]\n")
	size := rb.buf.Len()
	key := r.Key(runID)
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(rb.buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload run %d: %w", runID, err)
	}

	slog.Debug("run archived", "run_id", runID, "bucket", r.bucket, "key", key, "size", humanize.Bytes(uint64(size)))
	return nil
}

// Close drops buffered runs that never ended.
func (r *S3Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.buffers)
	return nil
}
