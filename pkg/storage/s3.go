package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config, S3 (veya MinIO gibi uyumlu) depo ayarları.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // boşsa AWS; doluysa path-style uyumlu uç nokta

	// PublicURL, dönen URL'lerin kökü (CDN vb.). Boşsa bucket URL'si kullanılır.
	PublicURL string
}

// S3Store, yüklemeleri manager.Uploader ile S3'e yazar.
// Büyük dosyalar otomatik olarak multipart yüklenir.
type S3Store struct {
	uploader *manager.Uploader
	cfg      S3Config
}

// NewS3Store, kimlik bilgilerini varsayılan AWS zincirinden (env, profil, IAM) okur.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsConf, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{uploader: manager.NewUploader(client), cfg: cfg}, nil
}

func (s *S3Store) Backend() string { return "s3" }

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return s.objectURL(key), nil
}

func (s *S3Store) objectURL(key string) string {
	escaped := url.PathEscape(key)
	switch {
	case s.cfg.PublicURL != "":
		return strings.TrimSuffix(s.cfg.PublicURL, "/") + "/" + escaped
	case s.cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.cfg.Endpoint, "/"), s.cfg.Bucket, escaped)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, escaped)
	}
}
