package graph

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// tagIndex is an inverted index from tag to the set of node slots carrying it.
//
// Roaring bitmaps keep membership tests cheap during result filtering and keep
// memory proportional to the number of tagged nodes.
type tagIndex struct {
	tags map[string]*roaring.Bitmap
}

func newTagIndex() *tagIndex {
	return &tagIndex{
		tags: make(map[string]*roaring.Bitmap),
	}
}

func (t *tagIndex) add(slot uint32, tags []string) {
	for _, tag := range tags {
		bm, ok := t.tags[tag]
		if !ok {
			bm = roaring.New()
			t.tags[tag] = bm
		}
		bm.Add(slot)
	}
}

func (t *tagIndex) remove(slot uint32, tags []string) {
	for _, tag := range tags {
		bm, ok := t.tags[tag]
		if !ok {
			continue
		}
		bm.Remove(slot)
		if bm.IsEmpty() {
			delete(t.tags, tag)
		}
	}
}

// bitmap returns the slot set for a tag, or nil if no node carries it.
func (t *tagIndex) bitmap(tag string) *roaring.Bitmap {
	return t.tags[tag]
}

func (t *tagIndex) reset() {
	t.tags = make(map[string]*roaring.Bitmap)
}
