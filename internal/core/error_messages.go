// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Database Errors (DB001-DB099)
//
// Errors related to database operations and constraints:
//
//	DB001 - Duplicate key: A record with this key already exists
//	        Action: Download the failed rows to review duplicates
//	        Patterns: "duplicate key"
//
//	DB002 - Unique constraint: This value must be unique but already exists
//	        Action: Check for duplicate entries in your file
//	        Patterns: "unique constraint", "violates unique"
//
//	DB003 - Foreign key: Referenced product does not exist
//	        Action: Register the product before adding schedules
//	        Patterns: "foreign key constraint", "violates foreign key"
//
//	DB004 - Connection refused: Unable to connect to database
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB005 - Connection reset: Database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB006 - Timeout: Operation timed out
//	        Action: Try uploading a smaller file or try again later
//	        Patterns: "timeout"
//
//	DB007 - Deadlock: Database was busy with conflicting operations
//	        Action: Please try again
//	        Patterns: "deadlock"
//
// # Validation Errors (VAL001-VAL099)
//
// Errors related to data validation and format checking:
//
//	VAL001 - Invalid date: Invalid date format detected
//	         Action: Use YYYY-MM-DD
//	         Patterns: "invalid date"
//
//	VAL002 - Invalid number: Invalid number format detected
//	         Action: Remove currency symbols and use standard decimal format
//	         Patterns: "invalid number"
//
//	VAL003 - Required field: Required field is empty
//	         Action: Ensure all required fields have values
//	         Patterns: "required field"
//
//	VAL004 - Missing product: No product was given
//	         Action: Choose a product from the catalog
//	         Patterns: "schedule has no product"
//
//	VAL005 - Too many entries: More than 10 clearance or declaration entries
//	         Action: Keep at most 10 of each per schedule
//	         Patterns: "too many repeat-group entries"
//
//	VAL006 - Invalid status: Status is not PENDING, ARRIVED or CANCELED
//	         Action: Use one of the listed statuses
//	         Patterns: "invalid schedule status"
//
//	VAL007 - Negative quantity: Quantities cannot be negative
//	         Action: Correct the quantity columns
//	         Patterns: "negative quantity"
//
// # File Errors (FILE001-FILE099)
//
// Errors related to file handling and parsing:
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Split the schedule into smaller files
//	          Patterns: "file too large"
//
//	FILE002 - Invalid file: File is not a readable CSV or XLSX workbook
//	          Action: Save the sheet as .xlsx or .csv (legacy .xls is not supported)
//	          Patterns: "invalid csv", "invalid xlsx"
//
//	FILE003 - Encoding error: File contains invalid characters
//	          Action: Save the file as UTF-8 or EUC-KR
//	          Patterns: "encoding error"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a schedule file to upload
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file is empty
//	          Action: Please upload a schedule file with data rows
//	          Patterns: "empty file"
//
// # Upload Errors (UPL001-UPL099)
//
// Errors related to the upload process and session management:
//
//	UPL001 - Upload cancelled: Upload was cancelled by user
//	         Action: Start a new upload when ready
//	         Patterns: "upload cancelled"
//
//	UPL002 - System busy: Too many uploads in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent uploads"
//
//	UPL003 - Session expired: Upload session not found
//	         Action: The upload may have expired. Please start a new upload
//	         Patterns: "upload not found"
//
//	UPL004 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	UPL005 - Request timeout: Request timed out
//	         Action: Try uploading a smaller file or check your connection
//	         Patterns: "context deadline exceeded"
//
// # Import Errors (IMP001-IMP099)
//
// Errors raised while reconciling a schedule file or changing a schedule:
//
//	IMP001 - Header not found: No schedule header in the first rows
//	         Action: Make sure a row names the CK/관리번호 and 품명 columns
//	         Patterns: "header row not found"
//
//	IMP002 - Unknown product: The product is not in the catalog
//	         Action: Register the product, then upload or save again
//	         Patterns: "unknown product"
//
//	IMP003 - Invalid status change: The schedule cannot move to that status
//	         Action: PENDING moves to ARRIVED or CANCELED; both move back to PENDING
//	         Patterns: "invalid status transition"
//
//	IMP004 - Status conflict: The schedule changed while you were editing
//	         Action: Reload the schedule and try again
//	         Patterns: "status changed concurrently"
//
//	IMP005 - Not found: The schedule or product does not exist
//	         Action: Reload the list; it may have been deleted
//	         Patterns: "not found"
//
// # Rate Limiting (RATE001-RATE099)
//
// Errors related to request throttling:
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones. Multiple patterns can map to the same code
// (e.g., DB002 matches both "unique constraint" and "violates unique").
//
// # For Support Staff
//
// When a user reports an error code:
//  1. Look up the code in this reference
//  2. Check the associated patterns to understand what triggered it
//  3. Review the suggested action to guide the user
//  4. If ERR000, check application logs for the original technical error
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the package documentation at the top of this file
var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Constraint Errors (DB001-DB003)
	// These errors occur when data violates database constraints.
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Download the failed rows to review duplicates",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your file",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review your data for duplicate key values",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced product does not exist",
			Action:  "Register the product before adding schedules",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced product does not exist",
			Action:  "Register the product before adding schedules",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB004-DB007)
	// These errors occur when database connectivity is disrupted.
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try uploading a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL007)
	// These errors occur when data doesn't match expected formats.
	// =========================================================================
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Remove currency symbols and use standard decimal format",
			Code:    "VAL002",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Ensure all required fields have values",
			Code:    "VAL003",
		},
	},
	{
		pattern: "schedule has no product",
		msg: UserMessage{
			Message: "No product was given",
			Action:  "Choose a product from the catalog",
			Code:    "VAL004",
		},
	},
	{
		pattern: "too many repeat-group entries",
		msg: UserMessage{
			Message: "Too many clearance or declaration entries",
			Action:  "Keep at most 10 of each per schedule",
			Code:    "VAL005",
		},
	},
	{
		pattern: "invalid schedule status",
		msg: UserMessage{
			Message: "Status is not PENDING, ARRIVED or CANCELED",
			Action:  "Use one of the listed statuses",
			Code:    "VAL006",
		},
	},
	{
		pattern: "negative quantity",
		msg: UserMessage{
			Message: "Quantities cannot be negative",
			Action:  "Correct the quantity columns",
			Code:    "VAL007",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// These errors occur when reading uploaded files.
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the schedule into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a readable CSV or XLSX workbook",
			Action:  "Save the sheet as .xlsx or .csv (legacy .xls is not supported)",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid xlsx",
		msg: UserMessage{
			Message: "File is not a readable CSV or XLSX workbook",
			Action:  "Save the sheet as .xlsx or .csv (legacy .xls is not supported)",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8 or EUC-KR",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a schedule file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a schedule file with data rows",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Upload Errors (UPL001-UPL006)
	// These errors occur during the upload process and session management.
	// =========================================================================
	{
		pattern: "upload cancelled",
		msg: UserMessage{
			Message: "Upload was cancelled",
			Action:  "Start a new upload when ready",
			Code:    "UPL001",
		},
	},
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "upload not found",
		msg: UserMessage{
			Message: "Upload session not found",
			Action:  "The upload may have expired. Please start a new upload",
			Code:    "UPL003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "upload still running",
		msg: UserMessage{
			Message: "The upload has not finished yet",
			Action:  "Wait for the upload to complete, then try again",
			Code:    "UPL006",
		},
	},

	// =========================================================================
	// Import Errors (IMP001-IMP005)
	// These errors occur while reconciling files and changing schedules.
	// "not found" stays last so the specific patterns above win.
	// =========================================================================
	{
		pattern: "header row not found",
		msg: UserMessage{
			Message: "No schedule header was found",
			Action:  "Make sure a row names the CK/관리번호 and 품명 columns",
			Code:    "IMP001",
		},
	},
	{
		pattern: "unknown product",
		msg: UserMessage{
			Message: "The product is not in the catalog",
			Action:  "Register the product, then upload or save again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "invalid status transition",
		msg: UserMessage{
			Message: "The schedule cannot move to that status",
			Action:  "PENDING moves to ARRIVED or CANCELED; both move back to PENDING",
			Code:    "IMP003",
		},
	},
	{
		pattern: "status changed concurrently",
		msg: UserMessage{
			Message: "The schedule changed while you were editing",
			Action:  "Reload the schedule and try again",
			Code:    "IMP004",
		},
	},
	{
		pattern: "not found",
		msg: UserMessage{
			Message: "The schedule or product does not exist",
			Action:  "Reload the list; it may have been deleted",
			Code:    "IMP005",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// These errors occur when request limits are exceeded.
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError returns the message for the first pattern contained in err's
// text, compared case-insensitively, or the ERR000 fallback. A nil error maps
// to the zero UserMessage.
//
// A file without a schedule header surfaces as IMP001:
//
//	MapError(fmt.Errorf("orders.xlsx: %w", importer.ErrHeaderNotFound)).Code // "IMP001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action", e.g.
// "No schedule header was found (Code: IMP001). Make sure a row names the
// CK/관리번호 and 품명 columns".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
