package core

import (
	"fmt"

	"github.com/JonMunkholm/fileops/internal/table"
)

// ReconciliationResult partitions two tables by key membership.
//
// Matched holds left rows whose key occurs in right, each left row at most
// once. LeftOnly and RightOnly hold the rows whose key is absent from the
// other side. Every table keeps its source's columns and row order.
type ReconciliationResult struct {
	Matched   *table.Table
	LeftOnly  *table.Table
	RightOnly *table.Table
}

// Counts returns the row count of each partition.
func (r ReconciliationResult) Counts() (matched, leftOnly, rightOnly int) {
	return r.Matched.Len(), r.LeftOnly.Len(), r.RightOnly.Len()
}

// Reconcile compares left and right on a single key column each.
//
// A row with a missing key matches nothing and lands in its own side's
// "only" table. Duplicated keys on the right do not multiply matched rows.
func Reconcile(left *table.Table, leftKey string, right *table.Table, rightKey string) (ReconciliationResult, error) {
	lp, ok := left.Index(leftKey)
	if !ok {
		return ReconciliationResult{}, fmt.Errorf("reconcile: %w", unknownColumn(leftKey, "left"))
	}
	rp, ok := right.Index(rightKey)
	if !ok {
		return ReconciliationResult{}, fmt.Errorf("reconcile: %w", unknownColumn(rightKey, "right"))
	}

	leftKeys := keySet(left, lp)
	rightKeys := keySet(right, rp)

	var matched, leftOnly, rightOnly []int
	for i := 0; i < left.Len(); i++ {
		if k, ok := joinKey(left.At(i, lp)); ok {
			if _, hit := rightKeys[k]; hit {
				matched = append(matched, i)
				continue
			}
		}
		leftOnly = append(leftOnly, i)
	}
	for i := 0; i < right.Len(); i++ {
		if k, ok := joinKey(right.At(i, rp)); ok {
			if _, hit := leftKeys[k]; hit {
				continue
			}
		}
		rightOnly = append(rightOnly, i)
	}

	return ReconciliationResult{
		Matched:   left.Select(matched),
		LeftOnly:  left.Select(leftOnly),
		RightOnly: right.Select(rightOnly),
	}, nil
}

// keySet collects the non-missing keys of column j.
func keySet(t *table.Table, j int) map[table.Value]struct{} {
	set := make(map[table.Value]struct{}, t.Len())
	for i := 0; i < t.Len(); i++ {
		if k, ok := joinKey(t.At(i, j)); ok {
			set[k] = struct{}{}
		}
	}
	return set
}
