// Package postgres stores combatants, encounters, combat events and item
// definitions in PostgreSQL through pgx v5. The schema lives in the
// top-level migrations directory.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tabletop/internal/config"
)

// Pool is the connection pool shared by the combat repositories.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the combat database described by cfg and verifies it
// answers a ping.
//
// Precondition: cfg must name a reachable database whose schema is migrated.
// Postcondition: Returns a Pool the repositories can query, or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging combat database %s: %w", cfg.Host, err)
	}

	return &Pool{pool: pool}, nil
}

// Close releases every connection. Repositories built on the pool fail afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the pool handed to NewCombatantRepository, NewEncounterRepository,
// NewEventRepository and NewItemRepository.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// isDuplicateKeyError reports whether err is a unique_violation (SQLSTATE
// 23505), raised when an encounter id is inserted twice.
func isDuplicateKeyError(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
