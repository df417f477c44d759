//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"cipher-chat/domain"
	"cipher-chat/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Transform is the pluggable payload codec applied to transformed messages.
// Implementations may be a no-op, a cipher or a compressor.
type Transform interface {
	Name() string
	Encode(payload []byte) ([]byte, error)
	Decode(payload []byte) ([]byte, error)
}

type IRoomRegistry interface {
	Get(name string) (*domain.Room, error)
	GetOrCreate(name string) (*domain.Room, error)
	Resolve(name string) (*domain.Room, error)
	List() []string
}

type Censor interface {
	Censor(original string) (string, []string)
}
