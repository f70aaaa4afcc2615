// Package s3store loads canonical records into the lake as JSONL objects
// on S3. Re-ingesting a dataset overwrites its object, which is what makes
// at-least-once delivery safe downstream.
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/datalakehq/statingest/internal/core/domain"
	"github.com/datalakehq/statingest/internal/ingest"
)

// Config holds S3 connection configuration.
type Config struct {
	Bucket         string `yaml:"bucket"`
	Prefix         string `yaml:"prefix"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`         // for local stacks
	ForcePathStyle bool   `yaml:"force_path_style"` // required by most local stacks
}

type uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// Loader implements the storage-load contract on S3.
type Loader struct {
	cfg      Config
	uploader uploader
	log      *slog.Logger
}

// NewLoader creates an S3 loader.
func NewLoader(cfg Config, log *slog.Logger) (*Loader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if log == nil {
		log = slog.Default()
	}

	awsCfg := aws.NewConfig()
	if cfg.Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}
	if cfg.ForcePathStyle {
		awsCfg = awsCfg.WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return &Loader{
		cfg:      cfg,
		uploader: s3manager.NewUploader(sess),
		log:      log,
	}, nil
}

// Load writes the records as one JSONL object under the table's prefix,
// keyed by dataset ID so a re-ingest replaces the previous load.
func (l *Loader) Load(ctx context.Context, tableName string, records []domain.CanonicalRecord) (ingest.LoadResult, error) {
	datasetID := "unassigned"
	if len(records) > 0 {
		datasetID = records[0].DatasetID
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		row := make(map[string]any, len(r.Fields)+1)
		row["dataset_id"] = r.DatasetID
		for col, v := range r.Fields {
			switch v.Kind {
			case domain.FieldInt:
				row[col] = v.Int
			case domain.FieldFloat:
				row[col] = v.Float
			case domain.FieldTime:
				row[col] = v.Time
			default:
				row[col] = v.Str
			}
		}
		if err := enc.Encode(row); err != nil {
			return ingest.LoadResult{}, fmt.Errorf("encode record: %w", err)
		}
	}

	key := l.objectKey(tableName, datasetID)
	_, err := l.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(l.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return ingest.LoadResult{}, fmt.Errorf("s3 upload failed: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", l.cfg.Bucket, key)
	l.log.Info("loaded records to s3", "table", tableName, "records", len(records), "location", location)
	return ingest.LoadResult{RecordsLoaded: len(records), Location: location}, nil
}

func (l *Loader) objectKey(tableName, datasetID string) string {
	if l.cfg.Prefix != "" {
		return fmt.Sprintf("%s/%s/%s.jsonl", l.cfg.Prefix, tableName, datasetID)
	}
	return fmt.Sprintf("%s/%s.jsonl", tableName, datasetID)
}
