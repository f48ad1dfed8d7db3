package editor

import "certificate-service/internal/models"

// History is a linear list of field-array snapshots with a cursor. A
// commit drops everything after the cursor.
type History struct {
	snapshots [][]models.Field
	cursor    int
}

// NewHistory starts a history at initial.
func NewHistory(initial []models.Field) *History {
	h := &History{}
	h.Reset(initial)
	return h
}

// Reset discards all snapshots and starts over at fields.
func (h *History) Reset(fields []models.Field) {
	h.snapshots = [][]models.Field{models.CloneFields(fields)}
	h.cursor = 0
}

// Commit records fields as the newest state.
func (h *History) Commit(fields []models.Field) {
	h.snapshots = append(h.snapshots[:h.cursor+1], models.CloneFields(fields))
	h.cursor = len(h.snapshots) - 1
}

// Undo steps back one snapshot. At the first snapshot it reports false.
func (h *History) Undo() ([]models.Field, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.cursor--
	return h.Current(), true
}

// Redo steps forward one snapshot. At the newest snapshot it reports false.
func (h *History) Redo() ([]models.Field, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.cursor++
	return h.Current(), true
}

func (h *History) CanUndo() bool { return h.cursor > 0 }

func (h *History) CanRedo() bool { return h.cursor < len(h.snapshots)-1 }

// Current returns a copy of the snapshot at the cursor.
func (h *History) Current() []models.Field {
	return models.CloneFields(h.snapshots[h.cursor])
}

// Len is the number of snapshots.
func (h *History) Len() int { return len(h.snapshots) }

// Cursor is the index of the current snapshot.
func (h *History) Cursor() int { return h.cursor }
