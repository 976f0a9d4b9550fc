package ipqsdb

import (
	"errors"
	"fmt"
)

// Kind identifies the category of failure raised by opening a reader or
// performing a fetch. Tests and callers should branch on Kind, never on
// an error's message text, which exists only for operator triage.
type Kind int

const (
	// Open errors.
	KindIoOpenFailed Kind = iota
	KindTruncatedFile

	// Header errors.
	KindBadMagic
	KindBadVersion
	KindBadHeaderSize
	KindNoColumns
	KindBadColumnBlockLength
	KindBadRecordSize
	KindMalformedVarint
	KindBadColumnName
	KindBadTreeFlag
	KindEmptyTree

	// Lookup errors.
	KindWrongFamily
	KindAddressExhausted
	KindTreeTooDeep
	KindNotFound

	// Decode errors.
	KindTruncatedLeaf
	KindBadString
	KindUnknownColumn
)

var kindNames = map[Kind]string{
	KindIoOpenFailed:         "IoOpenFailed",
	KindTruncatedFile:        "TruncatedFile",
	KindBadMagic:             "BadMagic",
	KindBadVersion:           "BadVersion",
	KindBadHeaderSize:        "BadHeaderSize",
	KindNoColumns:            "NoColumns",
	KindBadColumnBlockLength: "BadColumnBlockLength",
	KindBadRecordSize:        "BadRecordSize",
	KindMalformedVarint:      "MalformedVarint",
	KindBadColumnName:        "BadColumnName",
	KindBadTreeFlag:          "BadTreeFlag",
	KindEmptyTree:            "EmptyTree",
	KindWrongFamily:          "WrongFamily",
	KindAddressExhausted:     "AddressExhausted",
	KindTreeTooDeep:          "TreeTooDeep",
	KindNotFound:             "NotFound",
	KindTruncatedLeaf:        "TruncatedLeaf",
	KindBadString:            "BadString",
	KindUnknownColumn:        "UnknownColumn",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// OpenError is returned by a reader facade's construction functions
// when the file fails a structural invariant. It aborts construction;
// the reader is never returned alongside a non-nil OpenError.
type OpenError struct {
	kind  Kind
	eid   int
	cause error
}

// NewOpenError builds an OpenError for the given kind, EID, and
// optional wrapped cause.
func NewOpenError(kind Kind, eid int, cause error) *OpenError {
	return &OpenError{kind: kind, eid: eid, cause: cause}
}

func (e *OpenError) Kind() Kind { return e.kind }

func (e *OpenError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("ipqsdb: open failed: %s (EID %d): %v", e.kind, e.eid, e.cause)
	}
	return fmt.Sprintf("ipqsdb: open failed: %s (EID %d)", e.kind, e.eid)
}

func (e *OpenError) Unwrap() error { return e.cause }

// LookupError is returned by Fetch when a lookup or leaf decode fails.
// The reader itself remains usable after a LookupError.
type LookupError struct {
	kind  Kind
	eid   int
	cause error
}

// NewLookupError builds a LookupError for the given kind, EID, and
// optional wrapped cause.
func NewLookupError(kind Kind, eid int, cause error) *LookupError {
	return &LookupError{kind: kind, eid: eid, cause: cause}
}

func (e *LookupError) Kind() Kind { return e.kind }

func (e *LookupError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("ipqsdb: lookup failed: %s (EID %d): %v", e.kind, e.eid, e.cause)
	}
	return fmt.Sprintf("ipqsdb: lookup failed: %s (EID %d)", e.kind, e.eid)
}

func (e *LookupError) Unwrap() error { return e.cause }

// Is reports whether err is an *OpenError or *LookupError of kind k.
func Is(err error, k Kind) bool {
	var oerr *OpenError
	var lerr *LookupError
	switch {
	case errors.As(err, &oerr):
		return oerr.kind == k
	case errors.As(err, &lerr):
		return lerr.kind == k
	default:
		return false
	}
}
