// Package export implements an optional durable sink that uploads completed
// FinalResults to an S3-compatible object store. Grounded on the teacher's
// R2BackupService (internal/reliability/r2_backup_service.go), adapted from
// whole-database tar.gz backups down to a single msgpack object per job.
package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/sentinel/internal/domain"
)

// Sink uploads sealed FinalResults to a bucket, one object per execution.
// It is best-effort: a failed upload is logged and swallowed by its caller,
// never turned into a job failure.
type Sink struct {
	uploader *manager.Uploader
	bucket   string
	log      zerolog.Logger
}

// NewSink builds a Sink against bucket, using the default AWS credential
// chain (env vars, shared config, instance profile). Grounded on the
// teacher's R2Client construction in internal/di/services.go, which also
// resolves credentials before constructing its upload client.
func NewSink(ctx context.Context, bucket, endpoint string, log zerolog.Logger) (*Sink, error) {
	optFns := []func(*awsconfig.LoadOptions) error{}
	if endpoint != "" {
		optFns = append(optFns, awsconfig.WithBaseEndpoint(endpoint))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.UsePathStyle = true
		}
	})

	return &Sink{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		log:      log.With().Str("component", "export").Logger(),
	}, nil
}

// Export uploads result's msgpack encoding to
// "results/<strategy_id>/<execution_id>.msgpack".
func (s *Sink) Export(ctx context.Context, result domain.FinalResult) error {
	payload, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode final result: %w", err)
	}

	key := fmt.Sprintf("results/%s/%s.msgpack", result.StrategyID, result.ExecutionID)

	uploadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err = s.uploader.Upload(uploadCtx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/msgpack"),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	s.log.Info().Str("key", key).Int("size_bytes", len(payload)).Msg("exported job result to s3")
	return nil
}
