package distribution

import (
	"context"
	"sync"

	"github.com/keboola/cluster-resolver/internal/pkg/idgenerator"
	"github.com/keboola/cluster-resolver/internal/pkg/log"
)

const listenerBufferSize = 100

// Listener streams distribution change events, use Node.OnChangeListener to create one.
type Listener struct {
	C     <-chan Events
	ch    chan Events
	id    string
	stop  func()
	close *sync.Once
}

type listeners struct {
	logger    log.Logger
	lock      *sync.Mutex
	listeners map[string]*Listener
}

func newListeners(logger log.Logger) *listeners {
	return &listeners{
		logger:    logger.WithComponent("listeners"),
		lock:      &sync.Mutex{},
		listeners: make(map[string]*Listener),
	}
}

// Stop the listener, the channel C is closed.
func (l *Listener) Stop() {
	l.stop()
}

func (v *listeners) add() *Listener {
	v.lock.Lock()
	defer v.lock.Unlock()

	ch := make(chan Events, listenerBufferSize)
	l := &Listener{C: ch, ch: ch, id: idgenerator.RequestID(), close: &sync.Once{}}
	l.stop = func() {
		v.lock.Lock()
		defer v.lock.Unlock()
		v.remove(l)
	}
	v.listeners[l.id] = l
	return l
}

// notify sends events to all listeners, a full listener misses the events.
func (v *listeners) notify(events Events) {
	v.lock.Lock()
	defer v.lock.Unlock()
	for _, l := range v.listeners {
		select {
		case l.ch <- events:
		default:
			v.logger.Warnf(context.Background(), `listener "%s" is full, dropped events: %s`, l.id, events.Messages())
		}
	}
}

func (v *listeners) stopAll() {
	v.lock.Lock()
	defer v.lock.Unlock()
	for _, l := range v.listeners {
		v.remove(l)
	}
}

func (v *listeners) remove(l *Listener) {
	delete(v.listeners, l.id)
	l.close.Do(func() {
		close(l.ch)
	})
}
