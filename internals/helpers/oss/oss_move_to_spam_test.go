package helper

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpamKey(t *testing.T) {
	now := time.Date(2026, 10, 14, 7, 5, 9, 0, time.UTC)
	assert.Equal(t, "spam/2026/10/14/070509__old.webp", SpamKey("schools/a/logo/old.webp", now))
}

// fakeBucket accepts copies and fails deletes.
func fakeBucket(t *testing.T) (*OSSService, *[]string) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<CopyObjectResult><LastModified>2026-10-14T07:05:09.000Z</LastModified><ETag>"abc"</ETag></CopyObjectResult>`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := oss.New(srv.URL, "ak", "sk")
	require.NoError(t, err)
	bkt, err := client.Bucket("schoolku-test")
	require.NoError(t, err)
	return &OSSService{Client: client, Bucket: bkt, Endpoint: "oss.example.com", BucketName: "schoolku-test"}, &calls
}

func TestMoveToSpamLogsFailedSourceDelete(t *testing.T) {
	t.Setenv("ALI_OSS_PUBLIC_BASE", "")
	svc, calls := fakeBucket(t)

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	now := time.Date(2026, 10, 14, 7, 5, 9, 0, time.UTC)
	got, err := svc.MoveToSpam(context.Background(), "https://schoolku-test.oss.example.com/schools/a/logo/old.webp", now)
	require.NoError(t, err, "the copy landed, so the move reports success")
	assert.Equal(t, "https://schoolku-test.oss.example.com/spam/2026/10/14/070509__old.webp", got)

	require.NotEmpty(t, *calls)
	assert.True(t, strings.HasPrefix((*calls)[0], "PUT "))
	assert.Contains(t, logs.String(), "[OSS] delete source after spam copy failed key=schools/a/logo/old.webp")
}
