package document

// DefaultUndoCapacity bounds the undo history.
const DefaultUndoCapacity = 10

// Reconciler owns the live document, its undo history and the target selector.
// It is not safe for concurrent use; callers serialize access.
type Reconciler struct {
	doc      Document
	history  []Document
	capacity int
	target   Target
}

func NewReconciler(capacity int) *Reconciler {
	if capacity <= 0 {
		capacity = DefaultUndoCapacity
	}
	return &Reconciler{capacity: capacity, target: TargetWhole}
}

// Document returns a copy of the current document.
func (r *Reconciler) Document() Document { return r.doc }

// Target returns the active target field.
func (r *Reconciler) Target() Target { return r.target }

// Depth reports how many undo steps are available.
func (r *Reconciler) Depth() int { return len(r.history) }

// Capacity reports the undo bound.
func (r *Reconciler) Capacity() int { return r.capacity }

// push records the pre-mutation snapshot, evicting the oldest entry when full.
func (r *Reconciler) push() {
	if len(r.history) == r.capacity {
		copy(r.history, r.history[1:])
		r.history = r.history[:len(r.history)-1]
	}
	r.history = append(r.history, r.doc)
}

// Apply merges a fragment according to its kind.
func (r *Reconciler) Apply(f Fragment) {
	switch f.Kind {
	case FragmentTargeted:
		if field, ok := f.Target.Field(); ok {
			r.ApplyTargeted(field, f.Fields)
			return
		}
		r.ApplyFull(f.Fields)
	case FragmentDegraded:
		r.ApplyFull(Fields{FieldBody: f.Raw})
	default:
		r.ApplyFull(f.Fields)
	}
}

// ApplyFull replaces every editorial field present in fields; absent fields
// keep their current value.
func (r *Reconciler) ApplyFull(fields Fields) {
	r.push()
	next := r.doc
	for _, f := range EditorialFields {
		if v, ok := fields[f]; ok {
			next.Set(f, v)
		}
	}
	r.doc = next
}

// ApplyTargeted changes only field. Quote and attribution move together when
// the fragment carries both.
func (r *Reconciler) ApplyTargeted(field Field, fields Fields) {
	r.push()
	next := r.doc
	if v, ok := fields[field]; ok {
		next.Set(field, v)
	}
	if partner, ok := field.Partner(); ok {
		if v, ok := fields[partner]; ok {
			next.Set(partner, v)
		}
	}
	r.doc = next
}

// Edit sets one field by hand. Unchanged values do not consume history.
func (r *Reconciler) Edit(field Field, value string) bool {
	if r.doc.Get(field) == value {
		return false
	}
	r.push()
	r.doc.Set(field, value)
	return true
}

// SetMedia replaces the media and provenance fields, leaving editorial text alone.
func (r *Reconciler) SetMedia(m Document) {
	next := r.doc
	next.ImageURL = m.ImageURL
	next.ImageCaption = m.ImageCaption
	next.VideoURL = m.VideoURL
	next.RawEmbedHTML = m.RawEmbedHTML
	next.SubjectName = m.SubjectName
	next.Location = m.Location
	if next == r.doc {
		return
	}
	r.push()
	r.doc = next
}

// Undo restores the most recent snapshot. It reports false when history is empty.
func (r *Reconciler) Undo() bool {
	n := len(r.history)
	if n == 0 {
		return false
	}
	r.doc = r.history[n-1]
	r.history = r.history[:n-1]
	return true
}

// SetTarget selects a target; selecting the active target again returns to
// the whole document.
func (r *Reconciler) SetTarget(t Target) Target {
	if t == r.target {
		r.target = TargetWhole
	} else {
		r.target = t
	}
	return r.target
}

// Replace swaps in a loaded document. History is cleared since older
// snapshots belong to a different build.
func (r *Reconciler) Replace(doc Document) {
	r.doc = doc
	r.history = nil
	r.target = TargetWhole
}

// Reset returns to the empty document with no history.
func (r *Reconciler) Reset() {
	r.Replace(Document{})
}
