//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"guild-chat/domain"
	"guild-chat/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself.
// Panic recovery and restarts belong to the supervisor.
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

// EventSink is one live connection's outbound half. Consume must not block
// longer than the context allows; a dead or saturated sink returns an error
// and the caller decides whether that matters.
type EventSink interface {
	Consume(ctx context.Context, e event.RoomEvent) error
}

type IRegistry interface {
	Register(connID domain.ConnectionID, userID, displayName string, sink EventSink) (domain.Session, error)
	SetRoom(connID domain.ConnectionID, roomID domain.RoomID) (domain.RoomID, error)
	Unregister(connID domain.ConnectionID) *domain.Session
	Lookup(connID domain.ConnectionID) *domain.Session
	SinksForRoom(roomID domain.RoomID) []EventSink
	RoomMembers(roomID domain.RoomID) []domain.Session
}

type IRoomIndex interface {
	MembersOf(roomID domain.RoomID) []domain.ConnectionID
	Add(roomID domain.RoomID, connID domain.ConnectionID)
	Remove(roomID domain.RoomID, connID domain.ConnectionID)
	MoveTo(connID domain.ConnectionID, from, to domain.RoomID)
}

type IAccessGuard interface {
	CanJoin(userID string, roomID domain.RoomID) error
	CanPost(userID string, roomID domain.RoomID) error
}
