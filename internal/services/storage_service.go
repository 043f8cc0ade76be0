// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/kucukkal/dealer-backend/internal/config"
)

// StorageService archives uploaded acquisition files to S3 so a batch
// can be audited or replayed later. Without AWS credentials the archive
// step is skipped and imports proceed normally.
type StorageService struct {
	s3Client *s3.S3
	cfg      *config.Config
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.AWS.AccessKeyID == "" {
		// No credentials, run without the archive
		return &StorageService{cfg: cfg}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		cfg:      cfg,
	}, nil
}

func (s *StorageService) Enabled() bool {
	return s.s3Client != nil
}

// ArchiveImportFile stores the raw uploaded file under imports/ and
// returns the object key, or "" when archiving is disabled.
func (s *StorageService) ArchiveImportFile(content []byte, originalName, uploadedBy string) (string, error) {
	if !s.Enabled() {
		logrus.WithField("file", originalName).Debug("S3 archive disabled, skipping import archive")
		return "", nil
	}

	key := s.archiveKey(originalName)

	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentType:   aws.String("text/csv"),
		ContentLength: aws.Int64(int64(len(content))),
		Metadata: map[string]*string{
			"uploaded-by": aws.String(uploadedBy),
		},
	}

	if _, err := s.s3Client.PutObject(params); err != nil {
		return "", fmt.Errorf("failed to archive import file: %w", err)
	}

	return key, nil
}

func (s *StorageService) archiveKey(originalName string) string {
	name := filepath.Base(originalName)
	if name == "." || name == "/" || name == "" {
		name = "import.csv"
	}
	return fmt.Sprintf("imports/%s-%s", time.Now().Format("20060102T150405"), name)
}
