// Package load writes normalized fragments into staging relations and
// merges them into the durable warehouse tables through ordered set-based
// upserts.
package load

import (
	"context"
	"fmt"

	"sirene/internal/schema"
)

// StageMode controls how a table lands in staging. Whole-file loads replace
// staging; per-fragment loads append.
type StageMode int

const (
	StageReplace StageMode = iota
	StageAppend
)

func (m StageMode) String() string {
	if m == StageReplace {
		return "replace"
	}
	return "append"
}

// Store is the relational warehouse boundary the orchestrator drives. Each
// load call runs the full per-fragment protocol: stage rows, execute the
// ordered upserts into the durable relations, truncate staging.
// LoadNafCodeCounts runs once per stock period, after every legal-unit
// fragment has been merged: it aggregates active NAFRev2 units by activity
// code from the legal mirror and upserts the monthly count rows.
type Store interface {
	LoadLegalUnits(ctx context.Context, t *schema.Table, mode StageMode) error
	LoadEstablishments(ctx context.Context, t *schema.Table, mode StageMode) error
	LoadNafCodeCounts(ctx context.Context, fileDate string) error
}

// Error marks a statement the relational store rejected. Fatal to the
// fragment being processed; prior fragments stay committed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("load %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
