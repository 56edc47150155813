// Package publish uploads finished project artifacts to S3-compatible
// storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mgpai22/bilisub/internal/config"
	"github.com/mgpai22/bilisub/internal/logging"
	"github.com/mgpai22/bilisub/internal/project"
)

var ErrDisabled = errors.New("publishing is not configured")

// ObjectStore is the part of *minio.Client the publisher uses.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Object is a planned upload.
type Object struct {
	Path        string
	Key         string
	ContentType string
}

type Publisher struct {
	store  ObjectStore
	bucket string
	prefix string
	region string
	logger *logging.Logger
}

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".srt":  "application/x-subrip",
	".ass":  "text/x-ssa",
	".json": "application/json",
	".xml":  "application/xml",
	".md":   "text/markdown; charset=utf-8",
}

// New connects to the configured endpoint. Credentials are read from the
// environment variables named in cfg.
func New(cfg config.Publish, logger *logging.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	accessKey := os.Getenv(cfg.AccessKeyEnv)
	secretKey := os.Getenv(cfg.SecretKeyEnv)
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("%s and %s must be set to publish", cfg.AccessKeyEnv, cfg.SecretKeyEnv)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return NewWithStore(client, cfg, logger), nil
}

// NewWithStore builds a publisher on an existing store.
func NewWithStore(store ObjectStore, cfg config.Publish, logger *logging.Logger) *Publisher {
	return &Publisher{
		store:  store,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		region: cfg.Region,
		logger: logging.OrNop(logger),
	}
}

// Plan lists the files of p that would be uploaded and their object keys:
// final videos, subtitle and danmaku files, and the summary.
func (pub *Publisher) Plan(p *project.Project) ([]Object, error) {
	var objects []Object
	add := func(file string) {
		rel, err := filepath.Rel(p.Dir, file)
		if err != nil {
			return
		}
		ext := strings.ToLower(filepath.Ext(file))
		objects = append(objects, Object{
			Path:        file,
			Key:         path.Join(pub.prefix, p.Manifest.Name, filepath.ToSlash(rel)),
			ContentType: contentTypes[ext],
		})
	}

	for _, pattern := range []string{
		filepath.Join(p.Dir, project.FinalDir, "*.mp4"),
		filepath.Join(p.Dir, project.SubtitlesDir, "*"),
	} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, ok := contentTypes[strings.ToLower(filepath.Ext(m))]; !ok {
				continue
			}
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				add(m)
			}
		}
	}
	for _, kind := range []project.Kind{project.KindSummary, project.KindManifest} {
		if _, err := os.Stat(p.Path(kind)); err == nil {
			add(p.Path(kind))
		}
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Upload puts every planned file into the bucket, creating it if needed, and
// returns the object keys.
func (pub *Publisher) Upload(ctx context.Context, p *project.Project) ([]string, error) {
	objects, err := pub.Plan(p)
	if err != nil {
		return nil, fmt.Errorf("failed to plan upload: %w", err)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("nothing to publish in %s", p.Dir)
	}
	if err := pub.ensureBucket(ctx); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		info, err := pub.store.FPutObject(ctx, pub.bucket, obj.Key, obj.Path, minio.PutObjectOptions{
			ContentType: obj.ContentType,
		})
		if err != nil {
			return keys, fmt.Errorf("failed to upload %s: %w", obj.Key, err)
		}
		pub.logger.Debugw("Uploaded object", "key", obj.Key, "size", info.Size)
		keys = append(keys, obj.Key)
	}
	pub.logger.Infow("Published project", "bucket", pub.bucket, "objects", len(keys))
	return keys, nil
}

func (pub *Publisher) ensureBucket(ctx context.Context) error {
	exists, err := pub.store.BucketExists(ctx, pub.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", pub.bucket, err)
	}
	if exists {
		return nil
	}
	if err := pub.store.MakeBucket(ctx, pub.bucket, minio.MakeBucketOptions{Region: pub.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", pub.bucket, err)
	}
	pub.logger.Infow("Created bucket", "bucket", pub.bucket)
	return nil
}
