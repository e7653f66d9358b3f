package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	BucketName = "newsletter-assets"
	Region     = "eu-central-1"
)

var s3Client *s3.Client

func InitStorage() error {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(Region),
	)
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %v", err)
	}

	s3Client = s3.NewFromConfig(cfg)
	return nil
}

// UploadImage stores a processed message image and returns its public URL.
func UploadImage(buf *bytes.Buffer, contentType string, messageID uint, filename string) (string, error) {
	key := fmt.Sprintf("messages/%d/%d_%s.webp",
		messageID,
		time.Now().Unix(),
		strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
	)

	_, err := s3Client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})

	if err != nil {
		return "", fmt.Errorf("could not upload to S3: %v", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", BucketName, Region, key), nil
}

// DeleteImage removes a stored image by its public URL.
func DeleteImage(imageURL string) error {
	parts := strings.Split(imageURL, "/")
	key := strings.Join(parts[3:], "/")

	_, err := s3Client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: aws.String(BucketName),
		Key:    aws.String(key),
	})

	return err
}
