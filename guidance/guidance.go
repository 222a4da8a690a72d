// Package guidance implements the stepwise authoring guide backing the
// get_tailored_guidance tool: a static (taskType, step) → Markdown
// lookup with component and layer names substituted into the template,
// persisted in a bbolt database seeded once at startup.
// Grounded on db/bolt/bolt.go's bucket/JSON conventions, content grounded
// on tailored_guidance.py's overview/step structure translated to English.
package guidance

import (
	"context"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/sirupsen/logrus"
)

const bucketName = "guidance"

// Store is the guidance subsystem. One Store
// is opened at startup and shared process-wide, mirroring the store/cache
// client lifecycle.
type Store struct {
	db  *bolt.DB
	log *logrus.Logger
}

// Open opens (creating if absent) the bbolt database at path, then seeds
// the fixed task catalog if the bucket is empty.
func Open(path string, log *logrus.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open guidance database: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.ensureBucket(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.seedIfEmpty(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database file handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureBucket() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
}

func key(taskType, step string) []byte {
	return []byte(taskType + "|" + step)
}

// Guidance implements gateway.Guidance: a (taskType, step) lookup with
// component/layer names substituted into the stored template. version is
// accepted for interface parity with the rest of the engine but the
// catalog itself is not version-dependent — authoring conventions don't
// change per code-graph snapshot.
func (s *Store) Guidance(ctx context.Context, taskType, componentName, layer, step, version string) (string, bool, error) {
	if step == "" {
		step = "overview"
	}

	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		if v := b.Get(key(taskType, step)); v != nil {
			raw = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("read guidance: %w", err)
	}
	if raw == nil {
		return "", false, nil
	}

	return fillTemplate(string(raw), taskType, componentName, layer), true, nil
}

func fillTemplate(tpl, taskType, componentName, layer string) string {
	component := componentName
	if component == "" {
		component = "the target component"
	}
	layerLabel := layer
	if layerLabel == "" {
		layerLabel = "its architecture layer"
	}
	out := tpl
	out = strings.ReplaceAll(out, "{{task}}", taskType)
	out = strings.ReplaceAll(out, "{{component}}", component)
	out = strings.ReplaceAll(out, "{{layer}}", layerLabel)
	return out
}
