package media

import (
	"fmt"
	mathrand "math/rand"
	"sync"
)

// Picsum exposes roughly this many stable image IDs.
const picsumMaxID = 1084

const (
	imageWidth  = 800
	imageHeight = 600
)

// StockSource produces random stock-photo URLs from picsum.photos.
type StockSource struct {
	mu   sync.Mutex
	rand *mathrand.Rand
}

// NewStockSource seeds the source. A fixed seed gives deterministic URLs in
// tests.
func NewStockSource(seed int64) *StockSource {
	return &StockSource{rand: mathrand.New(mathrand.NewSource(seed))}
}

// RandomImageURL returns the URL of a random 800x600 stock image.
func (s *StockSource) RandomImageURL() string {
	s.mu.Lock()
	id := s.rand.Intn(picsumMaxID) + 1
	s.mu.Unlock()
	return fmt.Sprintf("https://picsum.photos/id/%d/%d/%d", id, imageWidth, imageHeight)
}
