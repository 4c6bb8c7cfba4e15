package utils

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// Uploader stores a media file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error)
}

type R2Config struct {
	Bucket       string
	AccessKey    string
	SecretKey    string
	Endpoint     string // https://<account-id>.r2.cloudflarestorage.com
	PublicDomain string // custom domain or r2.dev URL
}

type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

// R2Client wraps the S3 client with the bucket it writes to.
type R2Client struct {
	S3           *s3.Client
	Bucket       string
	PublicDomain string
}

func NewR2Client(ctx context.Context, cfg R2Config) (*R2Client, error) {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Endpoint == "" {
		return nil, fmt.Errorf("missing R2 env vars (R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_ENDPOINT)")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // required for R2
	})

	return &R2Client{S3: client, Bucket: cfg.Bucket, PublicDomain: cfg.PublicDomain}, nil
}

func (r *R2Client) Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	objectName, ct := objectNameFor(folder, fh)

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	_, err = r.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(r.Bucket),
		Key:          aws.String(objectName),
		Body:         f,
		ContentType:  aws.String(ct),
		CacheControl: aws.String("no-cache"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", fh.Filename, err)
	}
	return r.publicURL(objectName), nil
}

func (r *R2Client) publicURL(objectName string) string {
	domain := strings.TrimRight(r.PublicDomain, "/")
	return fmt.Sprintf("%s/%s/%s", domain, r.Bucket, objectName)
}

type GCSUploader struct {
	Client *storage.Client
	Bucket string
}

func NewGCSUploader(ctx context.Context, cfg GCSConfig) (*GCSUploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("missing GCS_BUCKET env var")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSUploader{Client: client, Bucket: cfg.Bucket}, nil
}

func (g *GCSUploader) Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	objectName, ct := objectNameFor(folder, fh)

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	w := g.Client.Bucket(g.Bucket).Object(objectName).
		If(storage.Conditions{DoesNotExist: true}).
		NewWriter(ctx)
	w.ContentType = ct
	w.CacheControl = "no-cache"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload close: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.Bucket, objectName), nil
}

func (g *GCSUploader) Close() error { return g.Client.Close() }

// objectNameFor builds "<folder>/<unix>-<uuid><ext>" and resolves the
// content type from the upload header or the extension.
func objectNameFor(folder string, fh *multipart.FileHeader) (string, string) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = ".bin"
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(ext)
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	name := fmt.Sprintf("%s/%d-%s%s", strings.Trim(folder, "/"), time.Now().UTC().Unix(), uuid.NewString(), ext)
	return name, ct
}
