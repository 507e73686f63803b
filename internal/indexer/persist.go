package indexer

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
)

// SaveToFile writes the document store to path as a JSON object keyed by
// decimal document id. The dictionary is not saved; LoadFromFile rebuilds
// it. The file is written to a temporary sibling and renamed into place.
func (ix *Index) SaveToFile(path string) error {
	data, err := json.Marshal(ix.docs)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSerialization, err, "encoding documents")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Wrap(apperrors.ErrIO, err, "creating snapshot directory")
		}
	}
	tmpPath := path + ".tmp"
	if err := writeFileSync(tmpPath, data); err != nil {
		os.Remove(tmpPath)
		return apperrors.Wrap(apperrors.ErrIO, err, "writing snapshot")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return apperrors.Wrap(apperrors.ErrIO, err, "renaming snapshot")
	}
	ix.logger.Info("index saved", "path", path, "documents", len(ix.docs), "bytes", len(data))
	return nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing file: %w", err)
	}
	return f.Close()
}

// LoadFromFile replaces the document store with the one saved at path and
// rebuilds the dictionary. The next assigned id is one past the largest
// loaded id, so a snapshot holding id math.MaxUint32 is rejected. On any
// error the index is left unchanged.
func (ix *Index) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrIO, err, "reading snapshot")
	}
	var docs map[index.DocID]index.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return apperrors.Wrap(apperrors.ErrSerialization, err, "decoding snapshot "+path)
	}
	if docs == nil {
		return apperrors.Newf(apperrors.ErrSerialization, "snapshot %s is not a document object", path)
	}

	var nextID uint64
	for id, doc := range docs {
		doc.ID = id
		if doc.Fields == nil {
			doc.Fields = make(map[string]string)
		}
		docs[id] = doc
		nextID = max(nextID, uint64(id)+1)
	}
	if nextID > math.MaxUint32 {
		return apperrors.Newf(apperrors.ErrSerialization, "snapshot %s holds reserved doc id %d", path, uint32(math.MaxUint32))
	}
	ix.docs = docs
	ix.nextID = index.DocID(nextID)
	ix.staged = nil
	ix.rebuild()
	ix.state = StateBuilt
	ix.logger.Info("index loaded", "path", path, "documents", len(docs), "terms", ix.inverted.Len())
	return nil
}
