package provider

import "sync"

// A sequential element id generator.
type SequentialIDGenerator struct {
	mutex     sync.Mutex
	currentID int64
}

// New returns the next id. The first id is 1.
func (g *SequentialIDGenerator) New() int64 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.currentID++
	return g.currentID
}

// Last returns the last id returned by New, 0 when New was never called.
func (g *SequentialIDGenerator) Last() int64 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return g.currentID
}
