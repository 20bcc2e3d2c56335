package poller

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

type Topic string

const (
	TopicOrders Topic = "orders"
	TopicQueue  Topic = "queue"
)

// ViewKey identifies one open view. KiosID 0 is the cross-kios aggregate.
// Variant separates views of the same topic and kios that fetch differently,
// such as a single day or a faster cadence. Invalidation ignores it.
type ViewKey struct {
	Session string
	Topic   Topic
	KiosID  uint
	Variant string
}

func (k ViewKey) String() string {
	if k.Variant != "" {
		return fmt.Sprintf("%s/%s/%d/%s", k.Session, k.Topic, k.KiosID, k.Variant)
	}
	return fmt.Sprintf("%s/%s/%d", k.Session, k.Topic, k.KiosID)
}

type runner interface {
	Start(ctx context.Context)
	Stop()
	RefreshNow()
}

type view struct {
	poller runner
	refs   int
}

// Hub owns the pollers of all open views. A poller runs while at least one
// viewer holds it.
type Hub struct {
	ctx context.Context
	log *logrus.Entry

	mu    sync.Mutex
	views map[ViewKey]*view
}

func NewHub(ctx context.Context, log *logrus.Entry) *Hub {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Hub{
		ctx:   ctx,
		log:   log.WithField("component", "hub"),
		views: map[ViewKey]*view{},
	}
}

// Acquire returns the poller for key, creating and starting it with build on
// first use. The returned release must be called once the viewer is gone;
// the last release stops the poller.
func Acquire[T any](h *Hub, key ViewKey, build func() *Poller[T]) (*Poller[T], func(), error) {
	h.mu.Lock()
	v, found := h.views[key]
	if !found {
		v = &view{poller: build()}
		h.views[key] = v
	}
	p, ok := v.poller.(*Poller[T])
	if !ok {
		h.mu.Unlock()
		return nil, nil, fmt.Errorf("poller: view %s holds a different data type", key)
	}
	v.refs++
	h.mu.Unlock()

	if !found {
		p.Start(h.ctx)
		h.log.WithField("view", key.String()).Debug("view opened")
	}

	var once sync.Once
	release := func() {
		once.Do(func() { h.release(key, v) })
	}
	return p, release, nil
}

func (h *Hub) release(key ViewKey, v *view) {
	h.mu.Lock()
	v.refs--
	last := v.refs == 0
	if last && h.views[key] == v {
		delete(h.views, key)
	}
	h.mu.Unlock()

	if last {
		v.poller.Stop()
		h.log.WithField("view", key.String()).Debug("view closed")
	}
}

// Invalidate refreshes, out of band, every open view a change to kiosID can
// affect: that kios's orders and queue views and all aggregate orders views.
func (h *Hub) Invalidate(kiosID uint) int {
	h.mu.Lock()
	var targets []runner
	for key, v := range h.views {
		switch {
		case key.KiosID == kiosID && (key.Topic == TopicOrders || key.Topic == TopicQueue):
			targets = append(targets, v.poller)
		case key.KiosID == 0 && key.Topic == TopicOrders:
			targets = append(targets, v.poller)
		}
	}
	h.mu.Unlock()

	for _, p := range targets {
		p.RefreshNow()
	}
	h.log.WithFields(logrus.Fields{"kios_id": kiosID, "views": len(targets)}).Debug("invalidated")
	return len(targets)
}

// Open is the number of views currently held.
func (h *Hub) Open() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.views)
}

// Close stops every poller regardless of holders.
func (h *Hub) Close() {
	h.mu.Lock()
	views := h.views
	h.views = map[ViewKey]*view{}
	h.mu.Unlock()
	for _, v := range views {
		v.poller.Stop()
	}
}
