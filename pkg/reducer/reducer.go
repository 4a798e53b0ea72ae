package reducer

import (
	"github.com/rs/zerolog"

	"github.com/arfordweb/redux-auto-api/pkg/action"
	"github.com/arfordweb/redux-auto-api/pkg/collection"
)

// Func is one state transition.
type Func func(collection.State, action.Action) collection.State

// Group maps registry keys to transitions for one operation configuration.
type Group map[action.Key]Func

// Merge flattens several groups into one. Later groups win on key conflicts.
func Merge(groups ...Group) Group {
	out := Group{}
	for _, g := range groups {
		for k, fn := range g {
			out[k] = fn
		}
	}
	return out
}

// Get returns the pessimistic GET transitions. START clears the collection
// and raises the in-flight counter; SUCCESS replaces Data and Order wholesale
// from the translated response; FAIL only records the outcome. A GET is
// all-or-nothing.
func Get(idKey string) Group {
	return Group{
		{Op: action.Get, Mode: action.Pessimistic, Phase: action.Start}:   getStart,
		{Op: action.Get, Mode: action.Pessimistic, Phase: action.Success}: getSuccess(idKey),
		{Op: action.Get, Mode: action.Pessimistic, Phase: action.Fail}:    getFail,
	}
}

func getStart(s collection.State, _ action.Action) collection.State {
	s.NumGetsInProgress++
	s.Data = map[string]collection.Resource{}
	s.Order = []string{}
	s.GetSucceeded = false
	s.GetFailed = false
	return s
}

func getSuccess(idKey string) Func {
	return func(s collection.State, a action.Action) collection.State {
		data := make(map[string]collection.Resource, len(a.Data))
		order := make([]string, 0, len(a.Data))
		for _, r := range a.Data {
			id, ok := r.ID(idKey)
			if !ok {
				continue
			}
			if _, seen := data[id]; !seen {
				order = append(order, id)
			}
			data[id] = r
		}
		s.Data = data
		s.Order = order
		s.NumGetsInProgress = dec(s.NumGetsInProgress)
		s.GetSucceeded = true
		return s
	}
}

func getFail(s collection.State, _ action.Action) collection.State {
	s.NumGetsInProgress = dec(s.NumGetsInProgress)
	s.GetFailed = true
	return s
}

// Post returns the POST transitions, registered under the given mode.
// The transitions are identical for both modes: nothing is inserted locally
// until the server confirms the creation, so FAIL has nothing to roll back.
// The mode only reflects whether placeholder ids were assigned up front.
func Post(idKey string, mode action.Mode) Group {
	return Group{
		{Op: action.Post, Mode: mode, Phase: action.Start}:   postStart,
		{Op: action.Post, Mode: mode, Phase: action.Success}: postSuccess(idKey),
		{Op: action.Post, Mode: mode, Phase: action.Fail}:    postFail,
	}
}

func postStart(s collection.State, _ action.Action) collection.State {
	s.NumPosting++
	return s
}

func postSuccess(idKey string) Func {
	return func(s collection.State, a action.Action) collection.State {
		data := s.CopyData()
		order := s.CopyOrder()
		for _, r := range a.Data {
			id, ok := r.ID(idKey)
			if !ok {
				continue
			}
			if _, exists := data[id]; !exists {
				order = append(order, id)
			}
			data[id] = r
		}
		s.Data = data
		s.Order = order
		s.NumPosting = dec(s.NumPosting)
		return s
	}
}

func postFail(s collection.State, a action.Action) collection.State {
	if !a.Partial {
		s.NumPosting = dec(s.NumPosting)
	}
	return s
}

// OptimisticPatch returns the optimistic PATCH transitions.
//
// START merges each patch over the existing resource and snapshots the
// pre-patch value; ids with no existing resource are skipped. SUCCESS
// discards the snapshots and is idempotent. FAIL restores each resource
// from its snapshot; a FAIL for an id with no recorded snapshot is logged
// and skipped rather than writing a nil resource into Data.
func OptimisticPatch(idKey string, log zerolog.Logger) Group {
	return Group{
		{Op: action.Patch, Mode: action.Optimistic, Phase: action.Start}:   patchStart(idKey),
		{Op: action.Patch, Mode: action.Optimistic, Phase: action.Success}: patchSuccess(idKey),
		{Op: action.Patch, Mode: action.Optimistic, Phase: action.Fail}:    patchFail(idKey, log),
	}
}

func patchStart(idKey string) Func {
	return func(s collection.State, a action.Action) collection.State {
		data := s.CopyData()
		snapshots := s.CopyPrePatch()
		for _, patch := range a.Data {
			id, ok := patch.ID(idKey)
			if !ok {
				continue
			}
			existing, ok := data[id]
			if !ok {
				continue
			}
			snapshots[id] = existing
			data[id] = existing.Merge(patch)
		}
		s.Data = data
		s.PrePatchResources = snapshots
		return s
	}
}

func patchSuccess(idKey string) Func {
	return func(s collection.State, a action.Action) collection.State {
		snapshots := s.CopyPrePatch()
		for _, patch := range a.Data {
			id, ok := patch.ID(idKey)
			if !ok {
				continue
			}
			delete(snapshots, id)
		}
		s.PrePatchResources = snapshots
		return s
	}
}

func patchFail(idKey string, log zerolog.Logger) Func {
	return func(s collection.State, a action.Action) collection.State {
		data := s.CopyData()
		snapshots := s.CopyPrePatch()
		for _, patch := range a.Data {
			id, ok := patch.ID(idKey)
			if !ok {
				continue
			}
			snapshot, ok := snapshots[id]
			if !ok {
				log.Warn().
					Str("namespace", a.Namespace).
					Str("id", id).
					Msg("patch rollback requested without a recorded snapshot")
				continue
			}
			data[id] = snapshot
			delete(snapshots, id)
		}
		s.Data = data
		s.PrePatchResources = snapshots
		return s
	}
}

// PessimisticPatch returns PATCH transitions that defer the local update
// until the server confirms it. START and FAIL leave Data untouched;
// SUCCESS merges the confirmed records.
func PessimisticPatch(idKey string) Group {
	return Group{
		{Op: action.Patch, Mode: action.Pessimistic, Phase: action.Start}: identity,
		{Op: action.Patch, Mode: action.Pessimistic, Phase: action.Success}: func(s collection.State, a action.Action) collection.State {
			data := s.CopyData()
			for _, patch := range a.Data {
				id, ok := patch.ID(idKey)
				if !ok {
					continue
				}
				if existing, ok := data[id]; ok {
					data[id] = existing.Merge(patch)
				}
			}
			s.Data = data
			return s
		},
		{Op: action.Patch, Mode: action.Pessimistic, Phase: action.Fail}: identity,
	}
}

// OptimisticDelete returns the optimistic DELETE transitions.
//
// START removes each resource from Data and stashes it; SUCCESS discards
// the stash and is idempotent; FAIL restores the resource under its
// original id. Order is never pruned, so consumers must tolerate dangling
// ids (collection.State.All does).
func OptimisticDelete(idKey string, log zerolog.Logger) Group {
	return Group{
		{Op: action.Delete, Mode: action.Optimistic, Phase: action.Start}:   deleteStart(idKey),
		{Op: action.Delete, Mode: action.Optimistic, Phase: action.Success}: deleteSuccess(idKey),
		{Op: action.Delete, Mode: action.Optimistic, Phase: action.Fail}:    deleteFail(idKey, log),
	}
}

func deleteStart(idKey string) Func {
	return func(s collection.State, a action.Action) collection.State {
		data := s.CopyData()
		stash := s.CopyPreDelete()
		for _, r := range a.Data {
			id, ok := r.ID(idKey)
			if !ok {
				continue
			}
			existing, ok := data[id]
			if !ok {
				continue
			}
			stash[id] = existing
			delete(data, id)
		}
		s.Data = data
		s.PreDeleteResources = stash
		return s
	}
}

func deleteSuccess(idKey string) Func {
	return func(s collection.State, a action.Action) collection.State {
		stash := s.CopyPreDelete()
		for _, r := range a.Data {
			id, ok := r.ID(idKey)
			if !ok {
				continue
			}
			delete(stash, id)
		}
		s.PreDeleteResources = stash
		return s
	}
}

func deleteFail(idKey string, log zerolog.Logger) Func {
	return func(s collection.State, a action.Action) collection.State {
		data := s.CopyData()
		stash := s.CopyPreDelete()
		for _, r := range a.Data {
			id, ok := r.ID(idKey)
			if !ok {
				continue
			}
			snapshot, ok := stash[id]
			if !ok {
				log.Warn().
					Str("namespace", a.Namespace).
					Str("id", id).
					Msg("delete rollback requested without a recorded snapshot")
				continue
			}
			data[id] = snapshot
			delete(stash, id)
		}
		s.Data = data
		s.PreDeleteResources = stash
		return s
	}
}

// PessimisticDelete returns DELETE transitions that remove resources only
// after the server confirms the deletion.
func PessimisticDelete(idKey string) Group {
	return Group{
		{Op: action.Delete, Mode: action.Pessimistic, Phase: action.Start}: identity,
		{Op: action.Delete, Mode: action.Pessimistic, Phase: action.Success}: func(s collection.State, a action.Action) collection.State {
			data := s.CopyData()
			for _, r := range a.Data {
				id, ok := r.ID(idKey)
				if !ok {
					continue
				}
				delete(data, id)
			}
			s.Data = data
			return s
		},
		{Op: action.Delete, Mode: action.Pessimistic, Phase: action.Fail}: identity,
	}
}

func identity(s collection.State, _ action.Action) collection.State {
	return s
}

// dec clamps at zero so a stray terminal action can never drive an
// in-flight counter negative.
func dec(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
