package reader

import (
	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/log"
	"github.com/dcps-reader/dcps-go/pkg/writerinfo"
)

// ownsInstance reports whether writerID may deliver instance. Without
// exclusive ownership every writer may. Otherwise the instance belongs to
// its strongest alive writer, ties going to the lower GUID. A writer whose
// cache already marks it as owner skips arbitration.
func (r *Reader) ownsInstance(writerID ident.GUID, a *association, instance ident.InstanceHandle) bool {
	if !r.cfg.ExclusiveOwnership {
		return true
	}
	if a.info.IsOwnerEvaluated(instance) {
		return true
	}

	r.mu.Lock()
	current, hasOwner := r.owners[instance]
	take := !hasOwner || current == writerID
	var displaced *association
	if !take {
		owner := r.writers[current]
		switch {
		case owner == nil || owner.info.State() != writerinfo.StateAlive:
			take = true
		case a.strength > owner.strength,
			a.strength == owner.strength && writerID.Compare(current) < 0:
			take = true
			displaced = owner
		}
	}
	if take {
		r.owners[instance] = writerID
	}
	r.mu.Unlock()

	if !take {
		return false
	}

	if displaced != nil {
		displaced.info.SetOwnerEvaluated(instance, false)
	}
	a.info.SetOwnerEvaluated(instance, true)

	if !hasOwner || current != writerID {
		r.logger.Debug("instance owner changed", "instance", instance,
			"owner", writerID.Short(), "strength", a.strength)
		r.events.Log(log.Event{
			Timestamp: r.sched.Now(),
			ReaderID:  r.id,
			WriterID:  writerID,
			Category:  log.CategoryOwnership,
			Ownership: &log.OwnershipEvent{
				Instance: instance,
				Owner:    writerID,
				Strength: a.strength,
			},
		})
	}
	return true
}

// releaseOwnership drops every instance owned by writerID and clears all
// cached decisions, so the next sample of each instance is arbitrated again.
func (r *Reader) releaseOwnership(writerID ident.GUID) {
	if !r.cfg.ExclusiveOwnership {
		return
	}

	r.mu.Lock()
	var released []ident.InstanceHandle
	for instance, owner := range r.owners {
		if owner == writerID {
			delete(r.owners, instance)
			released = append(released, instance)
		}
	}
	infos := make([]*writerinfo.WriterInfo, 0, len(r.writers))
	for _, a := range r.writers {
		infos = append(infos, a.info)
	}
	r.mu.Unlock()

	for _, info := range infos {
		info.ClearOwnerEvaluations()
	}

	for _, instance := range released {
		r.events.Log(log.Event{
			Timestamp: r.sched.Now(),
			ReaderID:  r.id,
			WriterID:  writerID,
			Category:  log.CategoryOwnership,
			Ownership: &log.OwnershipEvent{Instance: instance},
		})
	}
}

// Owner returns the current owner of instance under exclusive ownership.
func (r *Reader) Owner(instance ident.InstanceHandle) (ident.GUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[instance]
	return owner, ok
}
