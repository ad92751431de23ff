package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"delivery/internal/domain"
)

// Snapshot is the part of the store that survives restarts. Assigned and
// available orders are server-owned and always re-fetched.
type Snapshot struct {
	Cart            []domain.CartItem    `json:"cart"`
	Driver          *domain.Driver       `json:"driver,omitempty"`
	Products        []domain.Product     `json:"products"`
	CompletedOrders []*domain.Order      `json:"completed_orders"`
	SelectedOrderID string               `json:"selected_order_id,omitempty"`
	PaymentMethod   domain.PaymentMethod `json:"payment_method,omitempty"`
}

// Persister stores and restores the durable snapshot.
type Persister interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
}

// FilePersister keeps the snapshot in a single JSON file.
type FilePersister struct {
	path string
}

// NewFilePersister creates a persister writing to path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Load returns nil without error when nothing has been saved yet.
func (p *FilePersister) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// Save replaces the file atomically, so a crash leaves either the old or the
// new snapshot.
func (p *FilePersister) Save(ctx context.Context, s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err = os.Rename(tmpName, p.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

var _ Persister = (*FilePersister)(nil)
