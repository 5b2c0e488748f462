// Package s3 serves documents stored as objects under a bucket prefix.
package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"patrimonio/internal/core"
	"patrimonio/internal/log"
	"patrimonio/internal/sources"
)

// Config selects the bucket. Endpoint and static keys are optional and
// mostly used with S3 compatible stores.
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// API is the subset of the S3 client the store uses.
type API interface {
	manager.DownloadAPIClient
	awss3.ListObjectsV2APIClient
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

type Store struct {
	api        API
	downloader *manager.Downloader
	bucket     string
	prefix     string
	logger     *log.Logger
}

var (
	_ sources.DocumentSource = (*Store)(nil)
	_ sources.DocumentLister = (*Store)(nil)
)

var authCodes = map[string]struct{}{
	"AccessDenied":          {},
	"InvalidAccessKeyId":    {},
	"SignatureDoesNotMatch": {},
	"ExpiredToken":          {},
	"InvalidToken":          {},
}

// New loads the default AWS configuration, overridden by cfg.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("missing S3_BUCKET")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithAPI(client, cfg.Bucket, cfg.Prefix, logger), nil
}

// NewWithAPI wraps an existing client.
func NewWithAPI(api API, bucket, prefix string, logger *log.Logger) *Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{
		api:        api,
		downloader: manager.NewDownloader(api),
		bucket:     bucket,
		prefix:     prefix,
		logger:     logger.WithComponent(log.ComponentSource),
	}
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) FetchDocument(ctx context.Context, name string) ([]byte, bool, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, mapError("get "+name, err)
	}
	s.logger.DebugContext(ctx, "Downloaded object", log.FieldDocument, name, "bytes", len(buf.Bytes()))
	return buf.Bytes(), true, nil
}

// ListNames returns the JSON object names directly under the prefix.
func (s *Store) ListNames(ctx context.Context) ([]string, error) {
	p := awss3.NewListObjectsV2Paginator(s.api, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	var names []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, mapError("list "+s.bucket, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if strings.Contains(name, "/") || !strings.HasSuffix(name, ".json") {
				continue
			}
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *Store) ListAvailable(ctx context.Context) ([]core.Entry, error) {
	names, err := s.ListNames(ctx)
	if err != nil {
		return nil, err
	}
	return core.EntriesFromNames(names), nil
}

// PutDocument uploads body under name, replacing any existing object.
func (s *Store) PutDocument(ctx context.Context, name string, body []byte) error {
	_, err := s.api.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        strings.NewReader(string(body)),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return mapError("put "+name, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	return errors.As(err, &nf)
}

func mapError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := authCodes[apiErr.ErrorCode()]; ok {
			return fmt.Errorf("%s: %w: %s", op, core.ErrUnauthorized, apiErr.ErrorCode())
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
