package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	UserKeyPrefix        = "user:%d"
	ProfileKeyPrefix     = "profile:%d"
	WikiHTMLKeyPrefix    = "wiki:html:%s"
	ActiveListingsKey    = "listings:active"
	CategorySummariesKey = "categories:summary"
)

const (
	UserTTL     = 5 * time.Minute
	ProfileTTL  = 2 * time.Minute
	ListingsTTL = time.Minute
	WikiHTMLTTL = 30 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

// WikiHTMLKey keys rendered HTML by a digest of the markdown it came from.
// A rewritten entry hashes to a new key, so writes need no invalidation and
// old renders age out with WikiHTMLTTL.
func WikiHTMLKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf(WikiHTMLKeyPrefix, hex.EncodeToString(sum[:]))
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID), ProfileKey(userID))
}

func InvalidateProfiles(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, ProfileKey(id))
	}
	Invalidate(ctx, keys...)
}

// InvalidateListings drops every cached view derived from the listing table.
func InvalidateListings(ctx context.Context) {
	Invalidate(ctx, ActiveListingsKey, CategorySummariesKey)
}
