// Package cache provides the soft-limit LRU cache that keeps offscreen
// copies of images on the display.
//
// When the cache grows past its soft limit the least recently used quarter
// of the entries is evicted, and the eviction callback releases whatever
// server resource each entry holds:
//
//	c := cache.New[*Image, display.Drawable](64, func(_ *Image, p display.Drawable) {
//		d.FreePixmap(p)
//	})
//	c.Set(img, pixmap)
//	p, ok := c.Get(img)
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
// The eviction callback runs without the lock held.
package cache
