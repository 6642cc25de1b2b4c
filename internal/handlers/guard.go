package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"engagement/internal/domain"
	u "engagement/internal/utils"
)

// submissionKey creates a SHA256-based key identifying a submission, so a
// double-clicked form is not mailed twice.
func submissionKey(sub domain.Submission) string {
	h := sha256.New()
	for _, v := range []string{strings.ToLower(sub.Email), sub.FirstName, sub.LastName, sub.Date, sub.City, sub.Discord} {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	return "submission:" + hex.EncodeToString(h.Sum(nil))
}

func (svc *SubmissionService) guardEnabled() bool {
	return svc.Redis != nil && svc.Config.Cache.GuardTTL > 0
}

// claim reserves key for the guard TTL before any work is done. It reports
// false when an identical submission holds the key, delivered or still in
// flight. Redis errors let the submission through.
func (svc *SubmissionService) claim(c *fiber.Ctx, key string) bool {
	if !svc.guardEnabled() {
		return true
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), 1*time.Second)
	defer cancel()

	ok, err := svc.Redis.SetNX(ctx, key, time.Now().Unix(), svc.Config.Cache.GuardTTL).Result()
	if err != nil {
		u.Warn("Redis claim failed", "error", err)
		return true
	}
	return ok
}

// release drops a claim whose delivery failed so the member can retry.
func (svc *SubmissionService) release(c *fiber.Ctx, key string) {
	if !svc.guardEnabled() {
		return
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), 1*time.Second)
	defer cancel()

	if err := svc.Redis.Del(ctx, key).Err(); err != nil {
		u.Warn("Redis release failed", "error", err)
	}
}
