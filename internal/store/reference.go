package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Reference is a named target motion. Its waveform is stored separately, see Waveforms.
type Reference struct {
	ID          string
	Name        string
	Description string
	Frequency   int // samples per joint, 0 until a waveform is saved
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReferenceRepository provides CRUD operations for references.
type ReferenceRepository struct {
	db *sql.DB
}

// References returns the reference repository for this store.
func (s *Store) References() *ReferenceRepository {
	return &ReferenceRepository{db: s.db}
}

const referenceColumns = `id, name, description, frequency, created_at, updated_at`

// Create inserts a new reference.
func (r *ReferenceRepository) Create(ref *Reference) error {
	now := time.Now()
	ref.CreatedAt = now
	ref.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO refs (id, name, description, frequency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ref.ID, ref.Name, ref.Description, ref.Frequency, ref.CreatedAt, ref.UpdatedAt,
	)
	return err
}

// GetByID retrieves a reference by its ID.
func (r *ReferenceRepository) GetByID(id string) (*Reference, error) {
	return r.get(`SELECT `+referenceColumns+` FROM refs WHERE id = ?`, id)
}

// GetByName retrieves a reference by its name.
func (r *ReferenceRepository) GetByName(name string) (*Reference, error) {
	return r.get(`SELECT `+referenceColumns+` FROM refs WHERE name = ?`, name)
}

func (r *ReferenceRepository) get(query string, arg string) (*Reference, error) {
	ref := &Reference{}
	err := r.db.QueryRow(query, arg).Scan(
		&ref.ID, &ref.Name, &ref.Description, &ref.Frequency, &ref.CreatedAt, &ref.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ref, nil
}

// List retrieves all references, newest first.
func (r *ReferenceRepository) List() ([]*Reference, error) {
	rows, err := r.db.Query(`SELECT ` + referenceColumns + ` FROM refs ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []*Reference
	for rows.Next() {
		ref := &Reference{}
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Description, &ref.Frequency, &ref.CreatedAt, &ref.UpdatedAt); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return refs, nil
}

// Update renames or re-describes an existing reference.
func (r *ReferenceRepository) Update(ref *Reference) error {
	ref.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE refs SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		ref.Name, ref.Description, ref.UpdatedAt, ref.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(result)
}

// Delete removes a reference and its waveform.
func (r *ReferenceRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM refs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

func expectRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
