package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	authRepo "schoolku_backend/internals/features/users/auth/repository"
)

// StartBlacklistCleanupScheduler soft deletes blacklist rows older than
// TOKEN_BLACKLIST_TTL_DAYS on TOKEN_BLACKLIST_CLEANUP_CRON (daily by default).
func StartBlacklistCleanupScheduler(db *gorm.DB) *cron.Cron {
	repo := authRepo.New(db)
	ttlDays := configs.GetEnvInt("TOKEN_BLACKLIST_TTL_DAYS", 7)
	schedule := configs.GetEnv("TOKEN_BLACKLIST_CLEANUP_CRON", "@daily")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(schedule, func() { runCleanup(repo, ttlDays) }); err != nil {
		log.Printf("[CLEANUP] invalid schedule %q: %v", schedule, err)
		return nil
	}
	c.Start()
	log.Printf("[CLEANUP] token_blacklist cleanup scheduled %q ttl=%dd", schedule, ttlDays)
	return c
}

func runCleanup(repo authRepo.Repository, ttlDays int) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	before := time.Now().Add(-time.Duration(ttlDays) * 24 * time.Hour)
	n, err := repo.CleanupExpiredBlacklist(ctx, before)
	switch {
	case err != nil:
		log.Printf("[CLEANUP ERROR] token_blacklist: %v", err)
	case n > 0:
		log.Printf("[CLEANUP] %d expired tokens removed", n)
	default:
		log.Println("[CLEANUP] nothing to remove")
	}
}
