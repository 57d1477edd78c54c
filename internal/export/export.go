// Package export decides where downloaded exports end up: a local directory or an S3 bucket.
package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gestionale-natale/crm-client/internal/config"
	"github.com/gestionale-natale/crm-client/internal/logger"
	"github.com/gestionale-natale/crm-client/pkg/apiclient"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	uploadTimeout   = 2 * time.Minute
)

// uploader is the subset of manager.Uploader used by S3Saver.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Saver uploads files under Prefix in Bucket.
type S3Saver struct {
	Bucket string
	Prefix string
	up     uploader
	log    logger.Logger
}

// NewSaver returns the saver configured by export_target.
func NewSaver(ctx context.Context, cfg *config.Config, log logger.Logger) (apiclient.FileSaver, error) {
	if cfg == nil || cfg.ExportTarget != "s3" {
		dir := "."
		if cfg != nil && cfg.ExportDir != "" {
			dir = cfg.ExportDir
		}
		return apiclient.DirSaver{Dir: dir}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.ExportS3Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.ExportS3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.ExportS3Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Saver(cfg.ExportS3Bucket, cfg.ExportS3Prefix, manager.NewUploader(client), log), nil
}

func newS3Saver(bucket, prefix string, up uploader, log logger.Logger) *S3Saver {
	return &S3Saver{
		Bucket: bucket,
		Prefix: strings.Trim(prefix, "/"),
		up:     up,
		log:    logger.Ensure(log),
	}
}

// Key returns the object key name is stored under.
func (s *S3Saver) Key(name string) string {
	if s.Prefix == "" {
		return name
	}
	return path.Join(s.Prefix, name)
}

// Save uploads data as Key(name). Cancelling ctx aborts the upload.
func (s *S3Saver) Save(ctx context.Context, name string, data []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	key := s.Key(name)
	out, err := s.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(xlsxContentType),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", s.Bucket, key, err)
	}
	s.log.InfoObj("export uploaded", "export_upload", map[string]any{
		"bucket":   s.Bucket,
		"key":      key,
		"bytes":    len(data),
		"location": out.Location,
	})
	return nil
}
