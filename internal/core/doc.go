// Package core provides the business logic for schedule imports and
// schedule maintenance.
//
// This package holds no transport code. The HTTP server and the command-line
// tool both drive it through [Service].
//
// # Uploads
//
// [Service.StartUpload] returns an upload ID at once and processes the file
// in the background under an [UploadLimiter] slot:
//
//  1. reading: the payload is read into a table (CSV or XLSX)
//  2. validating: the table is reconciled against a catalog snapshot
//  3. inserting: records are persisted one at a time; a failed insert
//     becomes a [FailedRow] and the rest continue
//  4. complete, failed or cancelled
//
// Progress is broadcast to subscribers of [Service.SubscribeProgress]. The
// final [UploadResult] carries the importer diagnostics in full and stays
// available for the configured retention window. [Service.Analyze] runs the
// first two steps only.
//
// # Schedules
//
// Manual entries start PENDING. Status changes go through
// [Service.ChangeStatus], which validates the move and notifies the
// [InventorySync] when a schedule arrives.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
//   - VAL001-VAL007: Validation errors (formats, statuses, quantities)
//   - FILE001-FILE005: File errors (size, encoding, format)
//   - UPL001-UPL006: Upload errors (cancelled, busy, expired, still running)
//   - IMP001-IMP005: Import and status errors (header, product, transitions)
package core
