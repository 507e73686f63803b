package indexer

import (
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
)

var (
	documentSize = uint64(unsafe.Sizeof(index.Document{}))
	stringSize   = uint64(unsafe.Sizeof(""))
	bitmapSize   = uint64(unsafe.Sizeof(roaring.Bitmap{}))
)

// Stats reports document and term counts and a rough memory estimate.
func (ix *Index) Stats() IndexStats {
	terms := ix.inverted.Len()
	postings := ix.inverted.PostingsLen()
	return IndexStats{
		NumDocuments: len(ix.docs),
		NumStaged:    len(ix.staged),
		NumTokens:    terms,
		MemoryUsageBytes: uint64(len(ix.docs))*documentSize +
			uint64(terms)*stringSize +
			uint64(postings)*bitmapSize,
		PostingsBytes: ix.inverted.SizeInBytes(),
	}
}
