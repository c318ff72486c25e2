package helper

import (
	"context"
	"fmt"
	"log"
	"path"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

const spamPrefix = "spam"

// SpamKey: spam/YYYY/MM/DD/HHMMSS__<basename>
func SpamKey(srcKey string, now time.Time) string {
	return path.Join(
		spamPrefix,
		now.Format("2006"), now.Format("01"), now.Format("02"),
		fmt.Sprintf("%s__%s", now.Format("150405"), path.Base(srcKey)),
	)
}

// MoveToSpam copies the object into spam/ and removes the source (best effort).
func (s *OSSService) MoveToSpam(ctx context.Context, publicURL string, now time.Time) (string, error) {
	srcKey, err := ExtractKeyFromPublicURL(publicURL)
	if err != nil {
		return "", err
	}
	dstKey := SpamKey(srcKey, now)
	if _, err := s.Bucket.CopyObject(srcKey, dstKey, oss.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("copy %q -> %q: %w", srcKey, dstKey, err)
	}
	if err := s.Bucket.DeleteObject(srcKey, oss.WithContext(ctx)); err != nil {
		log.Printf("[OSS] delete source after spam copy failed key=%s err=%v", srcKey, err)
	}
	return s.PublicURL(dstKey), nil
}
