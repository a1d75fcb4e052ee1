package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// ErrNotExist is returned when the stored object for a location is missing.
var ErrNotExist = errors.New("object does not exist")

// Object is an open media file. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Storage resolves a content location to its bytes.
type Storage interface {
	Open(ctx context.Context, location string) (*Object, error)
}

type LocalStorage struct {
	root string
}

type SpacesStorage struct {
	client s3iface.S3API
	bucket string
	cdnURL string
}

func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client: s3.New(sess),
		bucket: bucket,
		cdnURL: cdnURL,
	}, nil
}

// path maps a location onto the filesystem. Every location resolves inside
// the storage root; an absolute path is kept only when it already points
// there, anything else is re-rooted.
func (ls *LocalStorage) path(location string) string {
	root := filepath.Clean(ls.root)
	if filepath.IsAbs(location) {
		clean := filepath.Clean(location)
		rel, err := filepath.Rel(root, clean)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return clean
		}
	}
	return filepath.Join(root, filepath.Clean(string(filepath.Separator)+location))
}

func (ls *LocalStorage) Open(_ context.Context, location string) (*Object, error) {
	p := ls.path(location)
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, ErrNotExist
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to detect content type of %s: %w", p, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Object{
		Body:        f,
		Size:        info.Size(),
		ContentType: mtype.String(),
		ModTime:     info.ModTime(),
	}, nil
}

// key turns a stored location (CDN URL or bare key) into a bucket key.
func (ss *SpacesStorage) key(location string) string {
	if ss.cdnURL != "" {
		location = strings.TrimPrefix(location, strings.TrimSuffix(ss.cdnURL, "/")+"/")
	}
	return strings.TrimPrefix(location, "/")
}

func (ss *SpacesStorage) Open(ctx context.Context, location string) (*Object, error) {
	key := ss.key(location)
	out, err := ss.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return nil, ErrNotExist
		}
		log.Error().Err(err).Str("key", key).Msg("Failed to fetch file from Spaces")
		return nil, fmt.Errorf("failed to fetch from Spaces: %w", err)
	}

	obj := &Object{
		Body:        out.Body,
		Size:        aws.Int64Value(out.ContentLength),
		ContentType: aws.StringValue(out.ContentType),
		ModTime:     aws.TimeValue(out.LastModified),
	}
	if obj.ContentType == "" {
		obj.ContentType = contentTypeFor(key)
	}
	return obj, nil
}

func contentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	default:
		return "application/octet-stream"
	}
}
