package helper

import (
	"context"
	"log"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
)

type TrashReaperConfig struct {
	Prefix        string
	RetentionDays int
	CronSchedule  string
	DryRun        bool
}

// SoftDeleteTarget is a table whose soft-deleted rows get purged.
type SoftDeleteTarget struct{ Table, Col string }

var reaperTargets = []SoftDeleteTarget{
	{Table: "schools", Col: "school_deleted_at"},
	{Table: "classes", Col: "class_deleted_at"},
	{Table: "students", Col: "student_deleted_at"},
	{Table: "staff", Col: "staff_deleted_at"},
	{Table: "token_blacklist", Col: "deleted_at"},
}

// StartTrashReaperCron purges spam/ objects and soft-deleted rows past retention.
// svc may be nil when OSS is not configured.
func StartTrashReaperCron(db *gorm.DB, svc *OSSService) *cron.Cron {
	cfg := TrashReaperConfig{
		Prefix:        configs.GetEnv("REAPER_PREFIX", spamPrefix+"/"),
		RetentionDays: configs.GetEnvInt("RETENTION_DAYS", 30),
		CronSchedule:  configs.GetEnv("CRON_SCHEDULE", "15 2 * * *"),
		DryRun:        configs.GetEnvBool("DRY_RUN", false),
	}
	if svc == nil {
		log.Printf("[TRASH-REAPER] OSS not configured, running DB reaper only")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(cfg.CronSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
		defer cancel()
		retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour

		if svc != nil {
			if err := runOSSReaper(ctx, svc.Bucket, cfg.Prefix, retention, cfg.DryRun); err != nil {
				log.Printf("[TRASH-REAPER] OSS error: %v", err)
			}
		}
		if err := runDBReaper(ctx, db, reaperTargets, retention, cfg.DryRun); err != nil {
			log.Printf("[TRASH-REAPER] DB error: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("[TRASH-REAPER] add cron failed: %v", err)
	}
	log.Printf("[TRASH-REAPER] started schedule=%q prefix=%q retention=%dd dryRun=%v",
		cfg.CronSchedule, cfg.Prefix, cfg.RetentionDays, cfg.DryRun)
	c.Start()
	return c
}

func runOSSReaper(ctx context.Context, bucket *oss.Bucket, prefix string, retention time.Duration, dryRun bool) error {
	threshold := time.Now().Add(-retention)
	marker := oss.Marker("")
	var keys []string
	total := 0

	for {
		lor, err := bucket.ListObjects(oss.Prefix(prefix), marker, oss.MaxKeys(1000), oss.WithContext(ctx))
		if err != nil {
			return err
		}
		for _, obj := range lor.Objects {
			total++
			if obj.Key != "" && obj.LastModified.Before(threshold) {
				keys = append(keys, obj.Key)
			}
		}
		if !lor.IsTruncated {
			break
		}
		marker = oss.Marker(lor.NextMarker)
	}

	if len(keys) == 0 {
		log.Printf("[OSS-REAPER] nothing to delete; scanned=%d under %q", total, prefix)
		return nil
	}
	if dryRun {
		log.Printf("[OSS-REAPER] DRY-RUN would delete %d/%d objects under %q", len(keys), total, prefix)
		return nil
	}

	deleted := 0
	for i := 0; i < len(keys); i += 1000 {
		end := i + 1000
		if end > len(keys) {
			end = len(keys)
		}
		if _, err := bucket.DeleteObjects(keys[i:end], oss.DeleteObjectsQuiet(true), oss.WithContext(ctx)); err != nil {
			log.Printf("[OSS-REAPER] delete batch %d-%d failed: %v", i, end, err)
			continue
		}
		deleted += end - i
	}
	log.Printf("[OSS-REAPER] deleted %d objects (scanned=%d) under %q", deleted, total, prefix)
	return nil
}

func runDBReaper(ctx context.Context, db *gorm.DB, targets []SoftDeleteTarget, retention time.Duration, dryRun bool) error {
	if db == nil {
		return nil
	}
	cutoff := time.Now().Add(-retention)
	total := int64(0)
	for _, t := range targets {
		if dryRun {
			var n int64
			db.WithContext(ctx).Table(t.Table).Where(t.Col+" IS NOT NULL AND "+t.Col+" < ?", cutoff).Count(&n)
			log.Printf("[DB-REAPER] DRY-RUN %s: would hard-delete %d rows", t.Table, n)
			continue
		}
		res := db.WithContext(ctx).Exec(`DELETE FROM `+t.Table+` WHERE `+t.Col+` IS NOT NULL AND `+t.Col+` < ?`, cutoff)
		if res.Error != nil {
			log.Printf("[DB-REAPER] %s: delete error: %v", t.Table, res.Error)
			continue
		}
		total += res.RowsAffected
		if res.RowsAffected > 0 {
			log.Printf("[DB-REAPER] %s: hard-deleted %d rows older than %s", t.Table, res.RowsAffected, cutoff.Format(time.RFC3339))
		}
	}
	if total == 0 && !dryRun {
		log.Printf("[DB-REAPER] nothing to delete (cutoff=%s)", cutoff.Format(time.RFC3339))
	}
	return nil
}
