package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"k8s.io/klog/v2"
)

// Uploader archives release artifacts (package, symbols, build log)
// into an S3 bucket under a per-release prefix.
type Uploader struct {
	bucket   string
	uploader *s3manager.Uploader
}

func NewUploader(bucket string) (*Uploader, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("can't create AWS session: %w", err)
	}

	return &Uploader{
		bucket:   bucket,
		uploader: s3manager.NewUploader(sess),
	}, nil
}

// Archive uploads every path under prefix, keyed by base name. Missing
// files fail the whole archive.
func (u *Uploader) Archive(ctx context.Context, prefix string, paths ...string) error {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("can't open artifact %q: %w", path, err)
		}

		key := prefix + "/" + filepath.Base(path)
		klog.V(4).Infof("Archiving %q to s3://%s/%s", path, u.bucket, key)

		_, err = u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(u.bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("can't archive %q: %w", path, err)
		}
	}

	return nil
}
