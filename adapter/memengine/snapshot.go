package memengine

import (
	"cmp"
	"context"
	"encoding/binary"
	"io"
	"os"
	"slices"

	"github.com/dolmen-go/contextio"
	"github.com/dossierdb/dossier/domain"
	"github.com/dossierdb/dossier/internal/adapter/document"
	"github.com/pierrec/lz4/v4"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot files start with a fixed 12-byte header: the magic, a format
// version, a flags byte, two reserved bytes and the uncompressed payload
// size as a little-endian uint32. The payload is a msgpack image, lz4
// block-compressed when the flag bit is set.
const (
	snapshotMagic   = "DOSS"
	snapshotVersion = 1

	flagLZ4 = 1 << 0

	headerSize = 12
)

// snapshot is the persisted engine image. Index trees are not stored;
// their specs rebuild them on load.
type snapshot struct {
	Collections []collectionState `msgpack:"collections"`
	Detached    []collectionState `msgpack:"detached"`
}

// collectionState captures one collection with its records in insertion
// order.
type collectionState struct {
	Name    string                   `msgpack:"name"`
	Options domain.CollectionOptions `msgpack:"options"`
	Docs    []domain.M               `msgpack:"docs"`
	Indexes []indexSpec              `msgpack:"indexes"`
}

type indexSpec struct {
	Path string           `msgpack:"path"`
	Kind domain.IndexFlag `msgpack:"kind"`
}

// writeSnapshot persists the full engine image to the session path,
// staging through a crash backup file. The caller holds the engine lock.
func (e *Engine) writeSnapshot(ctx context.Context) error {
	img := snapshot{
		Collections: collectStates(e.colls),
		Detached:    collectStates(e.detached),
	}
	payload, err := msgpack.Marshal(img)
	if err != nil {
		return err
	}

	flags := byte(0)
	body := payload
	if e.compress {
		buf := make([]byte, lz4.CompressBlockBound(len(payload)))
		n, err := lz4.CompressBlock(payload, buf, nil)
		if err != nil {
			return err
		}
		// Incompressible payloads stay raw.
		if n > 0 && n < len(payload) {
			body = buf[:n]
			flags |= flagLZ4
		}
	}

	header := make([]byte, 0, headerSize)
	header = append(header, snapshotMagic...)
	header = append(header, snapshotVersion, flags, 0, 0)
	header = binary.LittleEndian.AppendUint32(header, uint32(len(payload)))

	tmp := e.path + "~"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, e.fileMode)
	if err != nil {
		return err
	}
	wr := contextio.NewWriter(ctx, f)
	if _, err = wr.Write(header); err == nil {
		_, err = wr.Write(body)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, e.path)
}

// loadSnapshot fills the registries from the image at the session path.
// The caller holds the engine lock.
func (e *Engine) loadSnapshot(ctx context.Context) error {
	f, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer f.Close()

	rd := contextio.NewReader(ctx, f)
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(rd, header); err != nil {
		return domain.ErrBadSnapshot{Path: e.path, Reason: "truncated header"}
	}
	if string(header[:4]) != snapshotMagic {
		return domain.ErrBadSnapshot{Path: e.path, Reason: "bad magic"}
	}
	if header[4] != snapshotVersion {
		return domain.ErrSnapshotVersion{Version: header[4]}
	}
	flags := header[5]
	size := binary.LittleEndian.Uint32(header[8:12])

	body, err := io.ReadAll(rd)
	if err != nil {
		return err
	}
	payload := body
	if flags&flagLZ4 != 0 {
		payload = make([]byte, size)
		n, err := lz4.UncompressBlock(body, payload)
		if err != nil || uint32(n) != size {
			return domain.ErrBadSnapshot{Path: e.path, Reason: "corrupt lz4 block"}
		}
	}

	var img snapshot
	if err := msgpack.Unmarshal(payload, &img); err != nil {
		return domain.ErrBadSnapshot{Path: e.path, Reason: "corrupt payload"}
	}

	for _, state := range img.Collections {
		e.colls.Store(state.Name, state.restore())
	}
	for _, state := range img.Detached {
		e.detached.Store(state.Name, state.restore())
	}
	return nil
}

// collectStates drains a registry into a name-ordered, deterministic
// image.
func collectStates(reg *xsync.MapOf[string, *collection]) []collectionState {
	states := make([]collectionState, 0, reg.Size())
	reg.Range(func(name string, c *collection) bool {
		states = append(states, c.state())
		return true
	})
	slices.SortFunc(states, func(a, b collectionState) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return states
}

// state copies the collection image out under the collection lock.
func (c *collection) state() collectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	docs := make([]domain.M, len(c.order))
	for n, id := range c.order {
		docs[n] = document.Clone(c.docs[id])
	}
	specs := make([]indexSpec, 0, len(c.indexes))
	for _, idx := range c.indexes {
		specs = append(specs, indexSpec{Path: idx.path, Kind: idx.kind})
	}
	slices.SortFunc(specs, func(a, b indexSpec) int {
		if a.Path != b.Path {
			return cmp.Compare(a.Path, b.Path)
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return collectionState{
		Name:    c.name,
		Options: c.options,
		Docs:    docs,
		Indexes: specs,
	}
}

// restore rebuilds the live collection, index trees included.
func (s collectionState) restore() *collection {
	c := newCollection(s.Name, &s.Options)
	for _, d := range s.Docs {
		id := document.ID(d)
		if id == "" {
			continue
		}
		c.docs[id] = d
		c.order = append(c.order, id)
	}
	for _, spec := range s.Indexes {
		idx := newFieldIndex(spec.Path, spec.Kind)
		c.indexes[indexKey(spec.Path, spec.Kind)] = idx
		c.rebuild(idx)
	}
	return c
}
