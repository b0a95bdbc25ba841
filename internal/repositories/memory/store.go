// Package memory хранит сотрудников, оборудование и заявки в памяти процесса.
// Реализует те же интерфейсы, что и репозитории на Postgres; используется в
// демо-режиме (STORAGE_DRIVER=memory) и в тестах сервисов и маршрутов.
package memory

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"safety-tracker/internal/entities"
	"safety-tracker/internal/repositories"
)

var _ repositories.TxManagerInterface = (*Store)(nil)

type state struct {
	employees map[uint64]entities.Employee
	equipment map[uint64]entities.Equipment
	issues    map[uint64]entities.Issue

	nextEmployeeID  uint64
	nextEquipmentID uint64
	nextIssueID     uint64
}

func newState() state {
	return state{
		employees:       make(map[uint64]entities.Employee),
		equipment:       make(map[uint64]entities.Equipment),
		issues:          make(map[uint64]entities.Issue),
		nextEmployeeID:  1,
		nextEquipmentID: 1,
		nextIssueID:     1,
	}
}

// clone копирует карты. Указатели внутри сущностей общие: сущности в хранилище
// только заменяются целиком, по указателям никто не пишет.
func (s state) clone() state {
	c := s
	c.employees = make(map[uint64]entities.Employee, len(s.employees))
	for k, v := range s.employees {
		c.employees[k] = v
	}
	c.equipment = make(map[uint64]entities.Equipment, len(s.equipment))
	for k, v := range s.equipment {
		c.equipment[k] = v
	}
	c.issues = make(map[uint64]entities.Issue, len(s.issues))
	for k, v := range s.issues {
		c.issues[k] = v
	}
	return c
}

// Store - общее состояние для всех in-memory репозиториев.
type Store struct {
	mu    sync.RWMutex
	state state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// memTx помечает вызовы внутри RunInTransaction: блокировка уже взята.
// Методы pgx.Tx у него не реализованы и не вызываются.
type memTx struct {
	pgx.Tx
	store *Store
}

// RunInTransaction выполняет fn под исключительной блокировкой на копии состояния.
// Ошибка или паника в fn возвращают состояние к исходному.
func (s *Store) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = saved
			panic(p)
		}
		if err != nil {
			s.state = saved
		}
	}()

	return fn(&memTx{store: s})
}

func (s *Store) Ping(context.Context) error { return nil }

// read выполняет fn под блокировкой на чтение, если вызов не из транзакции.
func (s *Store) read(tx pgx.Tx, fn func(st *state)) {
	if s.inTx(tx) {
		fn(&s.state)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

func (s *Store) write(tx pgx.Tx, fn func(st *state)) {
	if s.inTx(tx) {
		fn(&s.state)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

func (s *Store) inTx(tx pgx.Tx) bool {
	mt, ok := tx.(*memTx)
	return ok && mt.store == s
}
