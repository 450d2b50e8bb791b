package collab

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"workspace-collab/core"
)

// DefaultDebounce is the quiet period after the last edit before a
// document's content is written to the snapshot store. Matches the editor's
// historical save delay.
const DefaultDebounce = 850 * time.Millisecond

// pendingSnapshot is the per-document debounce state. At most one exists
// per document; it holds the latest full content, never a delta queue.
type pendingSnapshot struct {
	content []byte
	timer   *time.Timer
	saving  bool
	// dirty is set when new content arrives while a write is in flight;
	// the debounce re-arms after the write returns.
	dirty bool
}

// Coalescer debounces rapid edits per document and issues a single snapshot
// write per quiet period. Continuous editing defers persistence
// indefinitely; that is the intended debounce behavior, not a defect.
// Documents are independent: a write for one never blocks another, and a
// write failure is logged, not retried, returning the document to idle so
// the next edit re-arms a clean cycle.
type Coalescer struct {
	store    core.SnapshotStore
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*pendingSnapshot
	closed  bool

	// wg tracks in-flight flushes so Close can wait them out.
	wg sync.WaitGroup
}

func NewCoalescer(store core.SnapshotStore, debounce time.Duration) *Coalescer {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Coalescer{
		store:    store,
		debounce: debounce,
		pending:  make(map[string]*pendingSnapshot),
	}
}

// Observe buffers the document's newest full content and (re)starts its
// debounce timer. Each call within the quiet period replaces the buffered
// content and resets the timer to the full interval. Content observed while
// a write is in flight is kept and re-armed once the write completes, so it
// is never dropped, only possibly superseded by yet newer content.
func (c *Coalescer) Observe(documentID string, content []byte) {
	if documentID == "" || len(content) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	p, ok := c.pending[documentID]
	if !ok {
		p = &pendingSnapshot{content: content}
		p.timer = time.AfterFunc(c.debounce, func() { c.flush(documentID) })
		c.pending[documentID] = p
		return
	}

	p.content = content
	if p.saving {
		p.dirty = true
		return
	}
	p.timer.Reset(c.debounce)
}

// flush runs on timer expiry. It takes the buffered content, performs the
// write outside the coalescer lock, then either retires the entry or
// re-arms it if edits arrived mid-write. At most one write per document is
// in flight at a time.
func (c *Coalescer) flush(documentID string) {
	c.mu.Lock()
	p, ok := c.pending[documentID]
	if !ok || p.saving || c.closed {
		c.mu.Unlock()
		return
	}
	p.saving = true
	content := p.content
	c.wg.Add(1)
	c.mu.Unlock()

	defer c.wg.Done()

	if err := c.store.WriteSnapshot(context.Background(), documentID, content); err != nil {
		logrus.WithError(err).WithField("document_id", documentID).
			Error("snapshot write failed; awaiting next edit")
	} else {
		logrus.WithFields(logrus.Fields{
			"document_id":  documentID,
			"content_size": len(content),
		}).Debug("snapshot written")
	}

	c.mu.Lock()
	p.saving = false
	if p.dirty && !c.closed {
		p.dirty = false
		p.timer.Reset(c.debounce)
	} else {
		p.timer.Stop()
		delete(c.pending, documentID)
	}
	c.mu.Unlock()
}

// Pending reports whether the document currently has a buffered,
// not-yet-written snapshot.
func (c *Coalescer) Pending(documentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[documentID]
	return ok
}

// Close stops all debounce timers, waits for in-flight writes, and performs
// a best-effort final write of any still-buffered content. After Close the
// coalescer accepts no further observations.
func (c *Coalescer) Close(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	remaining := make(map[string][]byte, len(c.pending))
	for id, p := range c.pending {
		p.timer.Stop()
		remaining[id] = p.content
	}
	c.pending = make(map[string]*pendingSnapshot)
	c.mu.Unlock()

	c.wg.Wait()

	for id, content := range remaining {
		if err := c.store.WriteSnapshot(ctx, id, content); err != nil {
			logrus.WithError(err).WithField("document_id", id).
				Error("final snapshot write failed during shutdown")
		}
	}
}
