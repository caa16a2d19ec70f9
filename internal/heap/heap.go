package heap

const initialThreshold = 1024 * 1024

const (
	stringObjectOverhead = 32
	arrayObjectOverhead  = 32
	valueSize            = 40
)

// RootVisitor is passed to a RootsEnumerator; call it once per live
// Value the caller wants the collector to treat as reachable.
type RootVisitor func(Value)

// RootsEnumerator supplies every currently-live Value to visit, in the
// order: constants, operand stack, frame locals, set globals,
// temporary roots. The interpreter owns the concrete enumeration; the
// heap only calls it at collection time.
type RootsEnumerator func(RootVisitor)

// GCLogger receives the three collector log lines. A nil logger
// disables logging entirely.
type GCLogger interface {
	GCf(format string, args ...any)
}

// Heap is the sole owner of every StringObject and ArrayObject. It is
// not safe for concurrent use; the engine it belongs to is single
// mutator, single threaded.
type Heap struct {
	objects   []Object
	heapBytes int
	threshold int
	log       GCLogger
}

// New returns an empty Heap with the standard initial growth threshold.
func New(log GCLogger) *Heap {
	return NewWithThreshold(log, initialThreshold)
}

// NewWithThreshold returns an empty Heap whose first collection triggers
// once live bytes would exceed threshold. A threshold <= 0 falls back to
// the standard initial growth threshold.
func NewWithThreshold(log GCLogger, threshold int) *Heap {
	if threshold <= 0 {
		threshold = initialThreshold
	}
	return &Heap{threshold: threshold, log: log}
}

// ObjectCount reports the number of live objects, for tests.
func (h *Heap) ObjectCount() int { return len(h.objects) }

// Bytes reports the live-object byte total, for tests.
func (h *Heap) Bytes() int { return h.heapBytes }

// Threshold reports the current growth threshold, for tests.
func (h *Heap) Threshold() int { return h.threshold }

func (h *Heap) maybeCollect(upcoming int, roots RootsEnumerator) {
	if h.heapBytes+upcoming <= h.threshold {
		return
	}
	h.Collect(roots)
	grown := h.threshold * 2
	if doubled := h.heapBytes * 2; doubled > grown {
		grown = doubled
	}
	h.threshold = grown
}

// AllocateString allocates a new heap string, running a collection
// first if the allocation would exceed the current threshold.
func (h *Heap) AllocateString(s string, roots RootsEnumerator) *StringObject {
	estimate := stringObjectOverhead + len(s)
	h.maybeCollect(estimate, roots)

	obj := &StringObject{Value: s, size: estimate}
	h.objects = append(h.objects, obj)
	h.heapBytes += estimate
	return obj
}

// AllocateArray allocates a new heap array of the given length, every
// element initialized to Null, running a collection first if needed.
func (h *Heap) AllocateArray(length int, roots RootsEnumerator) *ArrayObject {
	estimate := arrayObjectOverhead + valueSize*length
	h.maybeCollect(estimate, roots)

	elems := make([]Value, length)
	for i := range elems {
		elems[i] = Null
	}
	obj := &ArrayObject{Elements: elems, size: estimate}
	h.objects = append(h.objects, obj)
	h.heapBytes += estimate
	return obj
}

// Collect runs one full mark-and-sweep cycle unconditionally.
func (h *Heap) Collect(roots RootsEnumerator) {
	if h.log != nil {
		h.log.GCf("GC START heap=%d objects=%d", h.heapBytes, len(h.objects))
	}

	for _, obj := range h.objects {
		obj.setMarked(false)
	}

	marked := h.markFromRoots(roots)

	if h.log != nil {
		h.log.GCf("GC MARKED=%d", marked)
	}

	freed := h.sweep()

	if h.log != nil {
		h.log.GCf("GC SWEPT freed=%d heap=%d", freed, h.heapBytes)
	}
}

func (h *Heap) markFromRoots(roots RootsEnumerator) int {
	var marked int
	var worklist []Object

	roots(func(v Value) {
		h.markValue(v, &worklist, &marked)
	})

	for len(worklist) > 0 {
		obj := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if arr, ok := obj.(*ArrayObject); ok {
			for _, elem := range arr.Elements {
				h.markValue(elem, &worklist, &marked)
			}
		}
	}

	return marked
}

func (h *Heap) markValue(v Value, worklist *[]Object, marked *int) {
	obj := v.heapObject()
	if obj == nil || obj.marked() {
		return
	}
	obj.setMarked(true)
	*marked++
	*worklist = append(*worklist, obj)
}

func (h *Heap) sweep() int {
	write := 0
	freed := 0
	for _, obj := range h.objects {
		if !obj.marked() {
			h.heapBytes -= obj.sizeBytes()
			freed++
			continue
		}
		obj.setMarked(false)
		h.objects[write] = obj
		write++
	}
	h.objects = h.objects[:write]
	return freed
}
