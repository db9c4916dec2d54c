package texgen

import (
	"math"
	"sync"
)

// blurRadius is the tap distance of the separable pre-blur on each side
// of the centre texel.
const blurRadius = 4

// blurWeights holds the normalized weights of a 9-tap Gaussian kernel:
// center for the middle tap and side[i-1] for the taps at distance i.
type blurWeights struct {
	center float32
	side   [blurRadius]float32
}

// gaussianWeights computes exp(-i²/2σ²) for i in [-4, 4], normalized to
// sum to 1. sigma <= 0 yields the identity kernel.
func gaussianWeights(sigma float64) blurWeights {
	if sigma <= 0 {
		return blurWeights{center: 1}
	}

	twoSigmaSq := 2 * sigma * sigma
	raw := [blurRadius + 1]float64{}
	sum := float64(0)
	for i := 0; i <= blurRadius; i++ {
		x := float64(i)
		raw[i] = math.Exp(-(x * x) / twoSigmaSq)
		if i == 0 {
			sum += raw[i]
		} else {
			sum += 2 * raw[i]
		}
	}

	w := blurWeights{center: float32(raw[0] / sum)}
	for i := 1; i <= blurRadius; i++ {
		w.side[i-1] = float32(raw[i] / sum)
	}
	return w
}

// weightCache caches computed kernels to avoid recomputation while a
// blur slider is dragged. Key is sigma * 100.
type weightCache struct {
	mu     sync.RWMutex
	cache  map[int]blurWeights
	maxLen int
}

var defaultWeightCache = newWeightCache(64)

func newWeightCache(maxLen int) *weightCache {
	return &weightCache{
		cache:  make(map[int]blurWeights),
		maxLen: maxLen,
	}
}

// get retrieves weights from cache or generates and caches them.
func (c *weightCache) get(sigma float64) blurWeights {
	// Quantize sigma to 0.01 precision
	key := int(math.Round(sigma * 100))

	c.mu.RLock()
	if w, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return w
	}
	c.mu.RUnlock()

	w := gaussianWeights(float64(key) / 100)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// Simple eviction: clear half the cache
		count := 0
		for k := range c.cache {
			delete(c.cache, k)
			count++
			if count >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = w
	c.mu.Unlock()

	return w
}

func (c *weightCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
