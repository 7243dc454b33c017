package main

import (
	"context"
	"log"

	"news-ingest/pkg/config"
	"news-ingest/pkg/dedup"
)

// openLinkCache connects the Redis link cache when REDIS_ADDR is set. Keys are
// namespaced to the selected store. The memory store gets no cache since its
// contents do not survive the process. A failed connection only logs.
func openLinkCache(ctx context.Context, s config.Settings) (dedup.LinkCache, func()) {
	if s.RedisAddr == "" {
		return nil, func() {}
	}
	identity := s.StoreIdentity()
	if identity == "" {
		log.Printf("LinkCache: disabled for the %s store", s.Store)
		return nil, func() {}
	}
	cache, err := dedup.NewRedisLinkCache(ctx, dedup.RedisConfig{
		Prefix:   dedup.CachePrefix(s.Store, identity),
		Addr:     s.RedisAddr,
		Password: s.RedisPass,
		DB:       s.RedisDB,
		TTL:      s.LinkCacheTTL,
	})
	if err != nil {
		log.Printf("LinkCache: disabled: %v", err)
		return nil, func() {}
	}
	log.Printf("LinkCache: using redis at %s (ttl %s)", s.RedisAddr, s.LinkCacheTTL)
	return cache, func() { _ = cache.Close() }
}
