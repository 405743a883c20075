package stores

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/orchestraterm/internal/data/db"
)

// OpenJournal opens the journal database in dir. A corrupted database is
// moved aside and replaced by an empty one; the journal is an audit aid and
// never worth refusing to start over.
func OpenJournal(dir string, log zerolog.Logger) (*db.DB, error) {
	database, err := db.Open(dir, db.DefaultOpenOptions())
	if err == nil {
		return database, nil
	}
	if !IsCorruptionError(err) {
		return nil, err
	}

	log.Warn().Err(err).Str("dir", dir).Msg("journal database corrupted, starting a new one")
	if err := RecoverFromCorruption(dir); err != nil {
		return nil, fmt.Errorf("recover journal: %w", err)
	}
	return db.Open(dir, db.DefaultOpenOptions())
}
