// Package store persists trained ensembles and the append-only training
// history on the local filesystem.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ElMALIHI/footballai/internal/ml"
	"github.com/ElMALIHI/footballai/internal/models"
)

const modelFileExt = ".model.json"

var modelNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ModelStore saves and loads trained ensembles as JSON files under a base
// directory. Writes for the same model name are serialized through a
// per-name mutex; the last write wins. Files are written to a temporary path
// and renamed into place, so a crashed save never leaves a partial model
// visible to Load.
type ModelStore struct {
	dir    string
	logger *logrus.Logger
	locks  sync.Map // model name -> *sync.Mutex
}

// NewModelStore creates a model store rooted at dir, creating the directory
// if needed.
func NewModelStore(dir string, logger *logrus.Logger) (*ModelStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}
	return &ModelStore{dir: dir, logger: logger}, nil
}

// Dir returns the base directory models are stored under.
func (s *ModelStore) Dir() string {
	return s.dir
}

func (s *ModelStore) nameLock(name string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *ModelStore) path(name string) string {
	return filepath.Join(s.dir, name+modelFileExt)
}

func validateName(name string) error {
	if !modelNamePattern.MatchString(name) {
		return fmt.Errorf("%w: invalid model name %q", models.ErrModelNotFound, name)
	}
	return nil
}

// Save persists the ensemble under the given name. The serialized form round
// trips losslessly: a reloaded ensemble predicts identically to the original.
func (s *ModelStore) Save(ensemble *ml.Ensemble, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := ensemble.Validate(); err != nil {
		return err
	}

	lock := s.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.MarshalIndent(ensemble, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal %q: %v", models.ErrSerialization, name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close model file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move model into place: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"model":      name,
		"model_type": ensemble.ModelType,
		"trees":      len(ensemble.Trees),
		"bytes":      len(data),
	}).Info("Saved model")
	return nil
}

// Load reads and validates a persisted ensemble. A missing name yields
// ErrModelNotFound; an unreadable or structurally invalid file yields
// ErrSerialization. No partial state is ever returned.
func (s *ModelStore) Load(name string) (*ml.Ensemble, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", models.ErrModelNotFound, name)
		}
		return nil, fmt.Errorf("%w: read %q: %v", models.ErrSerialization, name, err)
	}

	ensemble := &ml.Ensemble{}
	if err := json.Unmarshal(data, ensemble); err != nil {
		return nil, fmt.Errorf("%w: unmarshal %q: %v", models.ErrSerialization, name, err)
	}
	if err := ensemble.Validate(); err != nil {
		return nil, fmt.Errorf("model %q: %w", name, err)
	}

	return ensemble, nil
}

// List returns metadata for every persisted model, sorted by name.
func (s *ModelStore) List() ([]models.ModelInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read model directory: %w", err)
	}

	infos := make([]models.ModelInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), modelFileExt) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, models.ModelInfo{
			Name:         strings.TrimSuffix(entry.Name(), modelFileExt),
			SizeBytes:    fi.Size(),
			LastModified: fi.ModTime().UTC(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete removes a persisted model. Deleting an unknown name yields
// ErrModelNotFound.
func (s *ModelStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	lock := s.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", models.ErrModelNotFound, name)
		}
		return fmt.Errorf("failed to delete model %q: %w", name, err)
	}

	s.logger.WithField("model", name).Info("Deleted model")
	return nil
}

// Exists reports whether a model with the given name is persisted.
func (s *ModelStore) Exists(name string) bool {
	if err := validateName(name); err != nil {
		return false
	}
	_, err := os.Stat(s.path(name))
	return err == nil
}
