package repository

import "github.com/jackc/pgx/v5/pgxpool"

// NewPostgresStore wires every repository onto one pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Tickets:     NewTicketRepository(pool),
		History:     NewTicketHistoryRepository(pool),
		SLA:         NewSLARepository(pool),
		TimeEntries: NewTimeEntryRepository(pool),
		Permissions: NewPermissionRepository(pool),
		Directory:   NewDirectoryRepository(pool),
	}
}
