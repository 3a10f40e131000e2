package etcdop

import (
	"context"

	"go.etcd.io/etcd/api/v3/mvccpb"
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

type EventType int32

const (
	CreateEvent EventType = iota
	UpdateEvent
	DeleteEvent
)

// EventT is a change of a typed value.
// For DeleteEvent the Value is decoded from the previous KV, if it is available.
type EventT[T any] struct {
	Type   EventType
	Value  T
	Kv     *KeyValue
	PrevKv *KeyValue
}

// WatchResponseT contains events of one etcd revision.
// The first response, with Created=true, contains all existing values as CreateEvent.
type WatchResponseT[T any] struct {
	Events  []EventT[T]
	Created bool
	Err     error
}

func (t EventType) String() string {
	switch t {
	case CreateEvent:
		return "create"
	case UpdateEvent:
		return "update"
	case DeleteEvent:
		return "delete"
	default:
		return "unknown"
	}
}

// GetAllAndWatch loads all existing values and then watches changes from the next revision.
// The channel is closed when the context is done or on an initialization error.
func (v PrefixT[T]) GetAllAndWatch(ctx context.Context, client *etcd.Client, opts ...etcd.OpOption) <-chan WatchResponseT[T] {
	out := make(chan WatchResponseT[T])
	send := func(resp WatchResponseT[T]) bool {
		select {
		case out <- resp:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(out)

		// GetAll
		getResp, err := client.KV.Get(ctx, v.Prefix(), etcd.WithPrefix())
		if err != nil {
			send(WatchResponseT[T]{Created: true, Err: errors.PrefixErrorf(err, `cannot get all values from "%s"`, v.Prefix())})
			return
		}
		initial := WatchResponseT[T]{Created: true}
		for _, kv := range getResp.Kvs {
			target := new(T)
			if err := v.serialization.decodeAndValidate(ctx, kv, target); err != nil {
				send(WatchResponseT[T]{Err: err})
				continue
			}
			initial.Events = append(initial.Events, EventT[T]{Type: CreateEvent, Value: *target, Kv: kv})
		}
		if !send(initial) {
			return
		}

		// Continue with Watch where GetAll ended
		opts = append([]etcd.OpOption{etcd.WithPrefix(), etcd.WithPrevKV(), etcd.WithRev(getResp.Header.Revision + 1)}, opts...)
		for rawResp := range client.Watcher.Watch(ctx, v.Prefix(), opts...) {
			if err := rawResp.Err(); err != nil {
				if !send(WatchResponseT[T]{Err: err}) {
					return
				}
				continue
			}

			resp := WatchResponseT[T]{}
			for _, rawEvent := range rawResp.Events {
				event, err := v.mapEvent(ctx, rawEvent)
				if err != nil {
					resp.Err = err
					continue
				}
				resp.Events = append(resp.Events, event)
			}
			if !send(resp) {
				return
			}
		}
	}()

	return out
}

func (v PrefixT[T]) mapEvent(ctx context.Context, rawEvent *etcd.Event) (EventT[T], error) {
	event := EventT[T]{Kv: rawEvent.Kv, PrevKv: rawEvent.PrevKv}
	valueKv := rawEvent.Kv
	switch {
	case rawEvent.Type == mvccpb.DELETE:
		event.Type = DeleteEvent
		valueKv = rawEvent.PrevKv
	case rawEvent.IsCreate():
		event.Type = CreateEvent
	default:
		event.Type = UpdateEvent
	}

	if valueKv != nil && len(valueKv.Value) > 0 {
		target := new(T)
		if err := v.serialization.decodeAndValidate(ctx, valueKv, target); err != nil {
			return event, err
		}
		event.Value = *target
	}
	return event, nil
}
