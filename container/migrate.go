package container

// Migration recovers the service binding and archive top-id of a legacy
// (revision 0 or 1) container from its userdata block, grounded on
// original_source/nuts-container/src/migrate.rs's `Migration` trait. It is
// implemented by a caller that knows the service's userdata layout; no
// package in this repo (the archive package included) provides an
// implementation.
type Migration interface {
	// MigrateRev0 decodes userdata — the block a rev0/rev1 header's top-id
	// pointed at before revision 2 inlined it — and returns the service id
	// and archive top-id that belong in the rewritten revision 2 header.
	// For a revision 1 header that already stores a service id, that
	// stored id is kept and the returned one is ignored.
	MigrateRev0(userdata []byte) (serviceID uint32, topID []byte, err error)
}

// Migrator wraps an optional Migration. The zero Migrator performs no
// migration: Open leaves a rev0/rev1 header untouched.
type Migrator struct {
	m Migration
}

// NewMigrator returns a Migrator that delegates to m.
func NewMigrator(m Migration) Migrator {
	return Migrator{m: m}
}

type migrationResult struct {
	serviceID uint32
	topID     []byte
}

// migrateRev0 runs the configured Migration, if any. A nil result with a
// nil error means "no migrator configured"; the caller must leave the
// header at its original revision in that case.
func (m Migrator) migrateRev0(userdata []byte) (*migrationResult, error) {
	if m.m == nil {
		return nil, nil
	}
	sid, topID, err := m.m.MigrateRev0(userdata)
	if err != nil {
		return nil, errMigration(err)
	}
	return &migrationResult{serviceID: sid, topID: topID}, nil
}
