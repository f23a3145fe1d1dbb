package talent

import (
	"context"
	"fmt"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"crewtrack/internal/types"
)

func TestStoreIndexAndNearby(t *testing.T) {
	redisAddr := os.Getenv("CREWTRACK_TEST_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("CREWTRACK_TEST_REDIS_ADDR not set; skipping integration test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	store := NewStore(nil, rdb)
	ctx := context.Background()

	suffix := time.Now().UnixNano()
	near := Electrician{ID: types.ID(fmt.Sprintf("el_near_%d", suffix)), Position: &types.Point{Lat: 53.4839, Lng: -2.2446}}
	far := Electrician{ID: types.ID(fmt.Sprintf("el_far_%d", suffix)), Position: &types.Point{Lat: 51.5074, Lng: -0.1278}}
	t.Cleanup(func() { rdb.ZRem(context.Background(), electricianGeoKey, string(near.ID), string(far.ID)) })

	for _, e := range []Electrician{near, far} {
		if err := store.Index(ctx, e); err != nil {
			t.Fatalf("index %s: %v", e.ID, err)
		}
	}

	ref := types.Point{Lat: 53.4808, Lng: -2.2426}
	ids, err := store.Nearby(ctx, ref, 25)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if !slices.Contains(ids, near.ID) {
		t.Errorf("expected %s within 25mi, got %v", near.ID, ids)
	}
	if slices.Contains(ids, far.ID) {
		t.Errorf("did not expect %s within 25mi", far.ID)
	}

	near.Position = nil
	if err := store.Index(ctx, near); err != nil {
		t.Fatalf("unindex: %v", err)
	}
	ids, err = store.Nearby(ctx, ref, 25)
	if err != nil {
		t.Fatalf("nearby after unindex: %v", err)
	}
	if slices.Contains(ids, near.ID) {
		t.Errorf("expected %s removed from the index", near.ID)
	}
}
