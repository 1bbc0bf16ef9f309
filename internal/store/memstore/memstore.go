// Package memstore es la implementación en memoria del almacén de documentos.
// La usan los tests y el modo de desarrollo sin Postgres; el contrato de
// entrega es el mismo: snapshot completo en cada cambio y cancelación síncrona.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/truequeapp/trueque-api/internal/store"
)

type subscription struct {
	id         int
	query      store.Query
	onSnapshot func(store.Snapshot)
	onError    func(error)
	cancelled  bool
}

// Store guarda colecciones como mapas documento→campos protegidos por un único
// mutex. Las entregas a los suscriptores ocurren bajo ese mismo mutex, de modo
// que Cancel es síncrono: al retornar, no llega ningún snapshot más.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	subs        map[int]*subscription
	nextSub     int

	// failBatchAfter fuerza el fallo de RunBatch tras preparar N operaciones,
	// antes de aplicar nada. Solo para tests de atomicidad.
	failBatchAfter int
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		collections:    make(map[string]map[string]map[string]any),
		subs:           make(map[int]*subscription),
		failBatchAfter: -1,
	}
}

// FailBatchAfter hace que el próximo RunBatch falle después de validar n
// operaciones, sin aplicar ninguna. Con n negativo se desactiva.
func (s *Store) FailBatchAfter(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failBatchAfter = n
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.collections[collection][id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return store.Document{ID: id, Fields: copyFields(fields)}, nil
}

func (s *Store) Find(ctx context.Context, q store.Query) (store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(q), nil
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.put(collection, id, resolveTimestamps(copyFields(fields)))
	s.notify(collection)
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(collection, id, resolveTimestamps(copyFields(fields)))
	s.notify(collection)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.collections[collection][id]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range resolveTimestamps(copyFields(fields)) {
		existing[k] = v
	}
	s.notify(collection)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return nil
	}
	delete(s.collections[collection], id)
	s.notify(collection)
	return nil
}

func (s *Store) RunBatch(ctx context.Context, ops []store.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Primera pasada: validar todo sin tocar el estado.
	for i, op := range ops {
		if s.failBatchAfter >= 0 && i >= s.failBatchAfter {
			s.failBatchAfter = -1
			return fmt.Errorf("fallo inyectado tras %d operaciones", i)
		}
		if op.Kind == store.OpUpdate {
			existing, ok := s.collections[op.Collection][op.ID]
			if !ok {
				return fmt.Errorf("lote: %s/%s: %w", op.Collection, op.ID, store.ErrNotFound)
			}
			for _, e := range op.Expect {
				if fmt.Sprint(existing[e.Field]) != fmt.Sprint(e.Value) {
					return fmt.Errorf("lote: %s/%s: %w", op.Collection, op.ID, store.ErrPrecondicion)
				}
			}
		}
	}

	touched := make(map[string]bool)
	for _, op := range ops {
		switch op.Kind {
		case store.OpUpdate:
			existing := s.collections[op.Collection][op.ID]
			for k, v := range resolveTimestamps(copyFields(op.Fields)) {
				existing[k] = v
			}
		case store.OpDelete:
			delete(s.collections[op.Collection], op.ID)
		}
		touched[op.Collection] = true
	}
	for collection := range touched {
		s.notify(collection)
	}
	return nil
}

func (s *Store) Subscribe(q store.Query, onSnapshot func(store.Snapshot), onError func(error)) store.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	sub := &subscription{id: s.nextSub, query: q, onSnapshot: onSnapshot, onError: onError}
	s.subs[sub.id] = sub

	// Entrega inicial, igual que un listener remoto recién registrado.
	onSnapshot(s.snapshot(q))

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		sub.cancelled = true
		delete(s.subs, sub.id)
	}
}

// put y notify asumen el mutex tomado.

func (s *Store) put(collection, id string, fields map[string]any) {
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]any)
	}
	s.collections[collection][id] = fields
}

func (s *Store) notify(collection string) {
	for _, sub := range s.subs {
		if sub.cancelled || sub.query.Collection != collection {
			continue
		}
		sub.onSnapshot(s.snapshot(sub.query))
	}
}

func (s *Store) snapshot(q store.Query) store.Snapshot {
	docs := store.Snapshot{}
	if q.ID != "" {
		if fields, ok := s.collections[q.Collection][q.ID]; ok {
			docs = append(docs, store.Document{ID: q.ID, Fields: copyFields(fields)})
		}
		return docs
	}

	for id, fields := range s.collections[q.Collection] {
		if matches(q, fields) {
			docs = append(docs, store.Document{ID: id, Fields: copyFields(fields)})
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			less := compare(docs[i].Fields[q.OrderBy], docs[j].Fields[q.OrderBy]) < 0
			if q.Descending {
				return !less
			}
			return less
		})
	} else {
		// Orden estable para que snapshots iguales sean comparables.
		sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	}
	return docs
}

func matches(q store.Query, fields map[string]any) bool {
	for _, f := range q.Filters {
		if fmt.Sprint(fields[f.Field]) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}

func compare(a, b any) int {
	ta, aOK := a.(time.Time)
	tb, bOK := b.(time.Time)
	if aOK && bOK {
		return ta.Compare(tb)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func resolveTimestamps(fields map[string]any) map[string]any {
	for k, v := range fields {
		if v == store.ServerTimestamp {
			fields[k] = time.Now().UTC()
		}
	}
	return fields
}
