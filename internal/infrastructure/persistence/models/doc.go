// Package models contains GORM-specific persistence models that map to database tables.
// Domain entities carry no GORM tags; each model converts to and from its domain type
// with ToDomain and FromDomain. Amounts, quantities and rates are unscaled numeric
// columns so line values are stored exactly as computed.
//
// Structure:
//   - base.go: BaseModel shared by every table
//   - inventory.go: items
//   - partner.go: parties
//   - trade.go: invoices and invoice lines
//   - finance.go: payments
package models
