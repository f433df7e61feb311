package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// References table - named target motions a session can be scored against
		`CREATE TABLE IF NOT EXISTS refs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			frequency INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Reference values table - one angle sample per joint per position, working leg first
		`CREATE TABLE IF NOT EXISTS ref_values (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ref_id TEXT NOT NULL REFERENCES refs(id) ON DELETE CASCADE,
			joint INTEGER NOT NULL CHECK(joint BETWEEN 0 AND 3),
			sequence INTEGER NOT NULL,
			value REAL NOT NULL,
			UNIQUE(ref_id, joint, sequence)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_ref_values_ref_id ON ref_values(ref_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
