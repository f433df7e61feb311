package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/lungescore/internal/geometry"
	"github.com/ayusman/lungescore/internal/reference"
)

// WaveformRepository stores the per-joint angle series of references.
type WaveformRepository struct {
	db *sql.DB
}

// Waveforms returns the waveform repository for this store.
func (s *Store) Waveforms() *WaveformRepository {
	return &WaveformRepository{db: s.db}
}

// Save replaces the waveform of a reference in a single transaction and records
// its length on the reference. Every joint's series must have the same length.
func (r *WaveformRepository) Save(refID string, set reference.Set) error {
	n := set.Len()
	if n <= 0 {
		return fmt.Errorf("waveform series must share a positive length")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE refs SET frequency = ?, updated_at = ? WHERE id = ?`, n, time.Now(), refID)
	if err != nil {
		return err
	}
	if err := expectRow(result); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM ref_values WHERE ref_id = ?`, refID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO ref_values (ref_id, joint, sequence, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for joint, series := range set {
		for i, v := range series {
			if _, err := stmt.Exec(refID, joint, i, v); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Get loads the waveform of a reference. A reference without a saved waveform
// yields ErrNotFound.
func (r *WaveformRepository) Get(refID string) (reference.Set, error) {
	rows, err := r.db.Query(
		`SELECT joint, value FROM ref_values WHERE ref_id = ? ORDER BY joint, sequence`,
		refID,
	)
	if err != nil {
		return reference.Set{}, err
	}
	defer rows.Close()

	var set reference.Set
	found := false
	for rows.Next() {
		var joint int
		var v float64
		if err := rows.Scan(&joint, &v); err != nil {
			return reference.Set{}, err
		}
		if joint < 0 || joint >= geometry.NumJoints {
			return reference.Set{}, fmt.Errorf("reference %s: joint %d out of range", refID, joint)
		}
		set[joint] = append(set[joint], v)
		found = true
	}

	if err := rows.Err(); err != nil {
		return reference.Set{}, err
	}
	if !found {
		return reference.Set{}, ErrNotFound
	}

	return set, nil
}

// Load resolves a reference by ID, falling back to name, and returns its waveform.
func (s *Store) Load(idOrName string) (*Reference, reference.Set, error) {
	ref, err := s.References().GetByID(idOrName)
	if errors.Is(err, ErrNotFound) {
		ref, err = s.References().GetByName(idOrName)
	}
	if err != nil {
		return nil, reference.Set{}, err
	}

	set, err := s.Waveforms().Get(ref.ID)
	if err != nil {
		return nil, reference.Set{}, err
	}
	return ref, set, nil
}
