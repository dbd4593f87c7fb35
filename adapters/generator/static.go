package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/contentpro/ideagate/ports"
)

// Static is a canned generator for tests and offline runs. It records
// the topics it was asked about and can be told to fail.
type Static struct {
	mu     sync.Mutex
	Err    error // returned by Generate when non-nil
	topics []string
}

// NewStatic creates a static generator.
func NewStatic() *Static {
	return &Static{}
}

// Generate returns a canned response mentioning the topic.
func (g *Static) Generate(ctx context.Context, topic string) (string, error) {
	g.mu.Lock()
	g.topics = append(g.topics, topic)
	err := g.Err
	g.mu.Unlock()

	if err != nil {
		return "", err
	}
	return fmt.Sprintf("5 post ideas about %q:\n1. ...\n2. ...\n3. ...\n4. ...\n5. ...", topic), nil
}

// Topics returns the topics Generate was called with.
func (g *Static) Topics() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.topics))
	copy(out, g.topics)
	return out
}

// Ensure interface compliance.
var _ ports.Generator = (*Static)(nil)
