package torrentstore

import (
	"encoding/json"
	"errors"
	"path"
	"time"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/dgraph-io/badger/v3"
	dlog "github.com/shapedtime/hoardhelper/internal/log"
	"github.com/shapedtime/hoardhelper/internal/mediatype"
)

const torrentRootKey = "/torrent/"

var ErrNotFound = errors.New("torrent not found")

// Entry is a debrid torrent tracked by hoardhelper.
type Entry struct {
	MagnetURI       string              `json:"magnetUri"`
	InfoHash        string              `json:"infoHash"`
	DebridID        string              `json:"debridId"`
	Name            string              `json:"name"`
	MediaType       mediatype.MediaType `json:"mediaType"`
	SelectedFileIDs []int               `json:"selectedFileIds"`
	Downloaded      bool                `json:"downloaded"`
	AddedAt         time.Time           `json:"addedAt"`
}

// Store persists torrent entries in badger, keyed by info hash and debrid ID.
type Store struct {
	db       *badger.DB
	inMemory bool
}

// Open opens the store at path. An empty path keeps everything in memory.
func Open(dir string) (*Store, error) {
	l := dlog.Component("torrent-store")

	opts := badger.DefaultOptions(dir).
		WithLogger(&dlog.Badger{L: l}).
		WithValueLogFileSize(1<<26 - 1)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	if dir != "" {
		err = db.RunValueLogGC(0.5)
		if err != nil && err != badger.ErrNoRewrite {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db, inMemory: dir == ""}, nil
}

func key(infoHash, debridID string) []byte {
	return []byte(path.Join(torrentRootKey, infoHash, debridID))
}

// Put stores an entry. The info hash is taken from the magnet link.
func (s *Store) Put(e *Entry) error {
	spec, err := metainfo.ParseMagnetUri(e.MagnetURI)
	if err != nil {
		return err
	}
	e.InfoHash = spec.InfoHash.HexString()
	if e.Name == "" {
		e.Name = spec.DisplayName
	}
	if e.AddedAt.IsZero() {
		e.AddedAt = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(e.InfoHash, e.DebridID), data)
	})
	if err != nil {
		return err
	}

	if s.inMemory {
		return nil
	}
	return s.db.Sync()
}

// Get finds an entry by debrid ID.
func (s *Store) Get(debridID string) (*Entry, error) {
	var found *Entry
	err := s.each(func(e *Entry) bool {
		if e.DebridID == debridID {
			found = e
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// List returns every entry, ordered by key.
func (s *Store) List() ([]*Entry, error) {
	out := []*Entry{}
	err := s.each(func(e *Entry) bool {
		out = append(out, e)
		return true
	})
	return out, err
}

// Update applies fn to the entry with the given debrid ID and stores the result.
func (s *Store) Update(debridID string, fn func(e *Entry)) (*Entry, error) {
	e, err := s.Get(debridID)
	if err != nil {
		return nil, err
	}

	fn(e)

	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(e.InfoHash, e.DebridID), data)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Remove deletes an entry. It reports whether something was removed.
func (s *Store) Remove(debridID string) (bool, error) {
	e, err := s.Get(debridID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	if err := tx.Delete(key(e.InfoHash, e.DebridID)); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (s *Store) each(fn func(e *Entry) bool) error {
	tx := s.db.NewTransaction(false)
	defer tx.Discard()

	it := tx.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := []byte(torrentRootKey)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var e Entry
		if err := it.Item().Value(func(v []byte) error {
			return json.Unmarshal(v, &e)
		}); err != nil {
			return err
		}
		if !fn(&e) {
			return nil
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
