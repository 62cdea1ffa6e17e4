// Package billing contains the invoicing engine domain model: billing period
// arithmetic, invoice and invoice item aggregates with their payment state
// machine, discount calculation, metered usage records and the repository
// contracts the engine is built on.
//
// All monetary values are decimal.Decimal (via the shared Money value object);
// floating point is never used for amounts.
package billing
