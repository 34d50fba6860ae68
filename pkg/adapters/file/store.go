// Package file stores card documents as JSON files in a local directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/ultracard/pkg/document"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
)

// DefaultDir is used when New is given an empty directory.
var DefaultDir = filepath.Join(".ultracard", "cards")

// ErrInvalidCardID is returned for IDs that cannot name a file in the store directory.
var ErrInvalidCardID = errors.New("invalid card id")

const ext = ".json"

// Store implements ports.ConfigStore on the local filesystem, one <id>.json per card.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir}
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(cardID string) (string, error) {
	if !ids.Valid(cardID) || strings.Contains(cardID, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidCardID, cardID)
	}
	return filepath.Join(s.dir, cardID+ext), nil
}

// Save writes the card atomically: the document goes to a temporary file in the same
// directory, is synced, and is then renamed over the destination.
func (s *Store) Save(ctx context.Context, cardID string, card domain.CardConfig) error {
	path, err := s.path(cardID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	data, err := document.EncodeJSON(card)
	if err != nil {
		return fmt.Errorf("failed to encode card %s: %w", cardID, err)
	}

	tmp, err := os.CreateTemp(s.dir, cardID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write card %s: %w", cardID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync card %s: %w", cardID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to save card %s: %w", cardID, err)
	}
	tmpName = ""
	return nil
}

// Load reads the card, returning domain.ErrCardNotFound when no file exists.
func (s *Store) Load(ctx context.Context, cardID string) (domain.CardConfig, error) {
	path, err := s.path(cardID)
	if err != nil {
		return domain.CardConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.CardConfig{}, domain.ErrCardNotFound
		}
		return domain.CardConfig{}, fmt.Errorf("failed to read card %s: %w", cardID, err)
	}
	card, err := document.DecodeJSON(data)
	if err != nil {
		return domain.CardConfig{}, fmt.Errorf("failed to decode card %s: %w", cardID, err)
	}
	return card, nil
}

// Delete removes the card file. Deleting a missing card is not an error.
func (s *Store) Delete(ctx context.Context, cardID string) error {
	path, err := s.path(cardID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete card %s: %w", cardID, err)
	}
	return nil
}

// List returns the stored card IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	cards := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ext {
			continue
		}
		cards = append(cards, strings.TrimSuffix(name, ext))
	}
	sort.Strings(cards)
	return cards, nil
}
