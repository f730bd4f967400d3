package cache

import (
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	c := New(5 * time.Minute)
	c.Set("teams", []int{1, 2, 3})
	v, ok := c.Get("teams")
	if !ok { t.Fatal("expected hit right after Set") }
	got, ok := v.([]int)
	if !ok || len(got) != 3 { t.Fatalf("unexpected value: %#v", v) }
}

func TestMissOnUnknownKey(t *testing.T) {
	c := New(5 * time.Minute)
	if _, ok := c.Get("nope"); ok { t.Fatal("expected miss") }
}

func TestExpiryEvicts(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewWithClock(5*time.Minute, func() time.Time { return now })
	c.Set("categories_10", "v")

	now = now.Add(5*time.Minute - time.Second)
	if _, ok := c.Get("categories_10"); !ok { t.Fatal("expected hit before TTL") }

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("categories_10"); ok { t.Fatal("expected miss after TTL") }
	if c.Len() != 0 { t.Fatalf("expired entry not evicted, len=%d", c.Len()) }
}

func TestSetRefreshesExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewWithClock(time.Minute, func() time.Time { return now })
	c.Set("k", 1)
	now = now.Add(50 * time.Second)
	c.Set("k", 2)
	now = now.Add(50 * time.Second)
	v, ok := c.Get("k")
	if !ok { t.Fatal("expected hit, Set should restart the TTL") }
	if v.(int) != 2 { t.Fatalf("got %v, want 2", v) }
}
