// Package models defines the core domain models for splitledger.
//
// # Ledger Models
//
// The ledger is built from a handful of values that carry all monetary
// invariants:
//   - Balance: a membership's signed net position inside its group
//   - Expense: an amount paid by one member and shared by participants
//   - Settlement: a repayment between two members, gated by confirmation
//   - Event: a record of what a ledger command changed
//
// Registry models (Group, Membership, User) only describe who may act; they
// hold no money.
//
// # Design Principles
//
// 1. **Money is decimal**: amounts are shopspring decimals rounded to cents
// with round-half-up after every arithmetic step
// 2. **IDs, not pointers**: relationships use ID strings to avoid cycles
// 3. **Mutations return events**: state transitions return Event values
// instead of notifying subscribers
// 4. **Errors are sentinels**: callers match failures with errors.Is
package models
