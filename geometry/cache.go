package geometry

import (
	lru "github.com/hashicorp/golang-lru"
)

// Ray fans are pure functions of the optical configuration, so a small
// process-wide cache keyed by its fingerprint skips retracing across
// tiles and repeated renders.
var fanCache, _ = lru.New(32)

// Cached returns the ray set stored under key, building and storing it
// on a miss.
func Cached(key string, build func() *RaySet) *RaySet {
	if v, ok := fanCache.Get(key); ok {
		return v.(*RaySet)
	}
	rs := build()
	fanCache.Add(key, rs)
	return rs
}
