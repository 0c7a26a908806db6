package typedfs

import (
	"github.com/mwantia/typedfs/content"
	"github.com/mwantia/typedfs/data"
)

// Item is a child of a Folder: either an *Entry or a *Folder.
type Item interface {
	ID() data.ID
	isItem()
}

func (*Entry) isItem()  {}
func (*Folder) isItem() {}

// slot is one element of a folder index. seq keeps items that share an id
// in insertion order.
type slot struct {
	id   data.ID
	seq  uint64
	item Item
}

func lessSlot(a, b slot) bool {
	if c := a.id.Compare(b.id); c != 0 {
		return c < 0
	}
	return a.seq < b.seq
}

// entryOf returns item as entry when it carries content type ct. A nil
// ct accepts any entry.
func entryOf(item Item, ct content.ContentType) (*Entry, bool) {
	entry, ok := item.(*Entry)
	if !ok {
		return nil, false
	}
	if ct != nil && entry.ct != ct {
		return nil, false
	}
	return entry, true
}
