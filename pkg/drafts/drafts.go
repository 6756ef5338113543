// Package drafts persists in-progress form values in a bbolt database so a
// form can be resumed later. Drafts are keyed by form id and a caller chosen
// key (a session, a user, a record id).
package drafts

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/store"
)

const bucketDrafts = "drafts"

// ErrNotFound is returned when no draft exists for a form id and key.
var ErrNotFound = errors.New("drafts: draft not found")

// Draft is one saved snapshot of form values.
type Draft struct {
	FormID string         `json:"formId"`
	Key    string         `json:"key"`
	Values map[string]any `json:"values"`
	Saved  time.Time      `json:"saved"`
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces time.Now for saved timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOpenTimeout bounds how long Open waits for the file lock.
func WithOpenTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// Store is a bbolt backed draft store. It is safe for concurrent use.
type Store struct {
	db      *bolt.DB
	now     func() time.Time
	logger  *zap.Logger
	timeout time.Duration
}

// Open opens (creating when missing) the draft database at path.
func Open(path string, options ...Option) (*Store, error) {
	s := &Store{now: time.Now, logger: zap.NewNop(), timeout: time.Second}
	for _, opt := range options {
		opt(s)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: s.timeout})
	if err != nil {
		return nil, fmt.Errorf("drafts: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketDrafts))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("drafts: initialise: %w", err)
	}
	s.db = db
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores values under formID and key, replacing any previous draft.
func (s *Store) Save(formID, key string, values map[string]any) error {
	if formID == "" || key == "" {
		return errors.New("drafts: form id and key are required")
	}
	draft := Draft{FormID: formID, Key: key, Values: values, Saved: s.now().UTC()}
	if draft.Values == nil {
		draft.Values = map[string]any{}
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("drafts: encode %s/%s: %w", formID, key, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket([]byte(bucketDrafts)).CreateBucketIfNotExists([]byte(formID))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), payload)
	})
	if err != nil {
		return fmt.Errorf("drafts: save %s/%s: %w", formID, key, err)
	}
	s.logger.Debug("draft saved", zap.String("form", formID), zap.String("key", key), zap.Int("values", len(draft.Values)))
	return nil
}

// Load returns the draft stored under formID and key.
func (s *Store) Load(formID, key string) (Draft, error) {
	var draft Draft
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketDrafts)).Bucket([]byte(formID))
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &draft)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Draft{}, err
		}
		return Draft{}, fmt.Errorf("drafts: load %s/%s: %w", formID, key, err)
	}
	return draft, nil
}

// Delete removes a draft. Deleting a missing draft is not an error.
func (s *Store) Delete(formID, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketDrafts)).Bucket([]byte(formID))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// List returns every draft of formID ordered by key.
func (s *Store) List(formID string) ([]Draft, error) {
	var drafts []Draft
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketDrafts)).Bucket([]byte(formID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var draft Draft
			if err := json.Unmarshal(v, &draft); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			drafts = append(drafts, draft)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("drafts: list %s: %w", formID, err)
	}
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].Key < drafts[j].Key })
	return drafts, nil
}

// SaveForm snapshots every stored value of form, registered or not.
func (s *Store) SaveForm(key string, form *engine.Form) error {
	doc := form.Document()
	if doc.ID == "" {
		return errors.New("drafts: form document has no id")
	}
	return s.Save(doc.ID, key, form.Snapshot())
}

// Resume interprets doc with the values of the draft under key. A missing
// draft yields a fresh form.
func (s *Store) Resume(key string, doc schema.Document, options ...engine.Option) (*engine.Form, error) {
	draft, err := s.Load(doc.ID, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return engine.New(doc, options...)
	case err != nil:
		return nil, err
	}
	seeded := store.New(store.WithValues(draft.Values))
	return engine.New(doc, append(options, engine.WithStore(seeded))...)
}
