// Package queue maintains the ordered list of images waiting to be exported
// together with their pending rotation.
package queue

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/imgmerge/internal/utils"
)

// RotationStep is the only rotation increment a user can apply.
const RotationStep = 90

var (
	// ErrIndexOutOfRange is returned when an index does not address an entry.
	ErrIndexOutOfRange = errors.New("queue index out of range")
	// ErrInvalidStep is returned for rotation steps other than ±90.
	ErrInvalidStep = errors.New("rotation step must be +90 or -90")
)

// Entry is one image plus its pending clockwise rotation in degrees.
type Entry struct {
	Path     string `yaml:"path" json:"path"`
	Rotation int    `yaml:"rotation" json:"rotation"`
}

// NormalizeRotation maps any angle onto [0, 360).
func NormalizeRotation(degrees int) int {
	return ((degrees % 360) + 360) % 360
}

// Queue is an ordered list of entries. The zero value is an empty queue.
type Queue struct {
	entries []Entry
}

// New creates a queue holding copies of the given entries, with rotations normalized.
func New(entries ...Entry) *Queue {
	q := &Queue{entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		e.Rotation = NormalizeRotation(e.Rotation)
		q.entries = append(q.entries, e)
	}
	return q
}

// Add appends every path with a supported image extension at rotation 0, in
// the given order. Paths that are not images are returned as skipped.
func (q *Queue) Add(paths ...string) (added int, skipped []string) {
	for _, p := range paths {
		if !utils.IsSupportedImage(p) {
			skipped = append(skipped, p)
			continue
		}
		q.entries = append(q.entries, Entry{Path: p})
		added++
	}
	return added, skipped
}

// Remove deletes the entry at index.
func (q *Queue) Remove(index int) error {
	if err := q.checkIndex(index); err != nil {
		return err
	}
	q.entries = append(q.entries[:index], q.entries[index+1:]...)
	return nil
}

// Move relocates the entry at from so that it ends up at index to.
func (q *Queue) Move(from, to int) error {
	if err := q.checkIndex(from); err != nil {
		return err
	}
	if err := q.checkIndex(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	e := q.entries[from]
	if from < to {
		copy(q.entries[from:to], q.entries[from+1:to+1])
	} else {
		copy(q.entries[to+1:from+1], q.entries[to:from])
	}
	q.entries[to] = e
	return nil
}

// Rotate applies a ±90 degree step to the entry at index and returns the new rotation.
func (q *Queue) Rotate(index, step int) (int, error) {
	if step != RotationStep && step != -RotationStep {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if err := q.checkIndex(index); err != nil {
		return 0, err
	}
	q.entries[index].Rotation = NormalizeRotation(q.entries[index].Rotation + step)
	return q.entries[index].Rotation, nil
}

// Clear removes every entry.
func (q *Queue) Clear() {
	q.entries = q.entries[:0]
}

// Len returns the number of entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// At returns the entry at index.
func (q *Queue) At(index int) (Entry, error) {
	if err := q.checkIndex(index); err != nil {
		return Entry{}, err
	}
	return q.entries[index], nil
}

// Snapshot returns a copy of the entries in queue order. Callers may keep it
// while the queue keeps changing.
func (q *Queue) Snapshot() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *Queue) checkIndex(index int) error {
	if index < 0 || index >= len(q.entries) {
		return fmt.Errorf("%w: %d (queue has %d entries)", ErrIndexOutOfRange, index, len(q.entries))
	}
	return nil
}
