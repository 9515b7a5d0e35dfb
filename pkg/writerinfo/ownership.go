package writerinfo

import "github.com/dcps-reader/dcps-go/pkg/ident"

// IsOwnerEvaluated returns the cached ownership decision for instance. An
// instance seen for the first time is cached as false.
func (w *WriterInfo) IsOwnerEvaluated(instance ident.InstanceHandle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	evaluated, ok := w.ownerEvaluated[instance]
	if !ok {
		w.ownerEvaluated[instance] = false
	}
	return evaluated
}

// SetOwnerEvaluated caches the ownership decision for instance. Clearing an
// instance that has no entry does not create one.
func (w *WriterInfo) SetOwnerEvaluated(instance ident.InstanceHandle, evaluated bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if evaluated {
		w.ownerEvaluated[instance] = true
		return
	}
	if _, ok := w.ownerEvaluated[instance]; ok {
		w.ownerEvaluated[instance] = false
	}
}

// ClearOwnerEvaluations drops every cached decision.
func (w *WriterInfo) ClearOwnerEvaluations() {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.ownerEvaluated)
}

// OwnerEvaluationCount returns the number of cached instances.
func (w *WriterInfo) OwnerEvaluationCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.ownerEvaluated)
}
