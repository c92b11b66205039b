package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/spassessoria/tax-advisor-go/internal/brdoc"
	"github.com/spassessoria/tax-advisor-go/internal/domain"
)

// ActivityRegistry holds the activity-code entries of one open form.
// Entries have stable ids, so async lookup completions merge by identity,
// never by position, and each entry carries a generation counter: a
// completion issued for an older generation is discarded on arrival
// instead of clobbering a newer edit.
type ActivityRegistry struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*activityEntry
}

type activityEntry struct {
	code       domain.ActivityCode
	generation uint64
}

// NewActivityRegistry creates a registry with one blank entry. The form
// never shows fewer than one.
func NewActivityRegistry() *ActivityRegistry {
	r := &ActivityRegistry{entries: make(map[string]*activityEntry)}
	r.Add()
	return r
}

// Add appends a blank entry and returns it.
func (r *ActivityRegistry) Add() domain.ActivityCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	e := &activityEntry{code: domain.ActivityCode{ID: id}}
	r.entries[id] = e
	r.order = append(r.order, id)
	return e.code
}

// Edit replaces an entry's value (masked here), invalidates its resolved
// description and error, and bumps the generation so any in-flight lookup
// for the old value is discarded on arrival.
func (r *ActivityRegistry) Edit(id, value string) (domain.ActivityCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return domain.ActivityCode{}, &domain.ErrNotFound{Resource: "activity code", ID: id}
	}
	e.generation++
	e.code.Value = brdoc.MaskCNAE(value)
	e.code.Description = ""
	e.code.Error = ""
	e.code.Loading = false
	return e.code, nil
}

// Remove deletes an entry. The last remaining entry cannot be removed.
func (r *ActivityRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return &domain.ErrNotFound{Resource: "activity code", ID: id}
	}
	if len(r.order) <= 1 {
		return &domain.ErrValidation{Field: "cnaes", Message: "ao menos um CNAE deve permanecer"}
	}

	delete(r.entries, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns the entries in form order.
func (r *ActivityRegistry) List() []domain.ActivityCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.ActivityCode, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].code)
	}
	return out
}

// Values returns the non-empty code values in order, primary first.
func (r *ActivityRegistry) Values() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, id := range r.order {
		if v := r.entries[id].code.Value; v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Resolve runs the blur-triggered lookup for one entry. The description
// is merged back only if the entry still exists and has not been edited
// since the lookup was issued; a stale completion is dropped.
func (r *ActivityRegistry) Resolve(ctx context.Context, id string, lookup func(context.Context, string) (string, error)) (domain.ActivityCode, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return domain.ActivityCode{}, &domain.ErrNotFound{Resource: "activity code", ID: id}
	}

	value := e.code.Value
	if value == "" {
		e.code.Error = ""
		e.code.Description = ""
		e.code.Loading = false
		code := e.code
		r.mu.Unlock()
		return code, nil
	}

	if err := brdoc.ValidateCNAE(value); err != nil {
		e.code.Error = err.Error()
		e.code.Loading = false
		code := e.code
		r.mu.Unlock()
		return code, nil
	}

	e.code.Loading = true
	e.code.Error = ""
	e.code.Description = ""
	generation := e.generation
	r.mu.Unlock()

	description, err := lookup(ctx, value)

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok = r.entries[id]
	if !ok || e.generation != generation {
		// Entry removed or edited while the lookup was in flight.
		return domain.ActivityCode{}, &domain.ErrNotFound{Resource: "activity code", ID: id}
	}

	e.code.Loading = false
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			e.code.Error = "CNAE não encontrado ou inválido."
		} else {
			e.code.Error = "Não foi possível validar o CNAE."
		}
	} else {
		e.code.Description = description
	}
	return e.code, nil
}
