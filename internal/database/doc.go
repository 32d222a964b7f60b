// Package database provides SQLite-based storage for reviewscan run history.
//
// This package implements the ResultDB, which stores:
//   - One row per run with its request, page counts and label totals
//   - The sentiment record of every review in the run
//   - The emotion record of every review in the run
//
// Storage is opt-in: a run only touches the database when saving is enabled.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for a personal history of runs
package database
