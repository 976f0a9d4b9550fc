// Package maperr translates the internal header and tree packages'
// error kinds into the public ipqsdb.OpenError / ipqsdb.LookupError
// types, so both reader facades report the same taxonomy without
// duplicating the kind-to-kind mapping.
package maperr

import (
	"errors"

	"github.com/deploymenttheory/go-ipqsdb"
	"github.com/deploymenttheory/go-ipqsdb/internal/header"
	"github.com/deploymenttheory/go-ipqsdb/internal/tree"
)

var headerKinds = map[header.Kind]ipqsdb.Kind{
	header.KindBadMagic:             ipqsdb.KindBadMagic,
	header.KindBadVersion:           ipqsdb.KindBadVersion,
	header.KindBadHeaderSize:        ipqsdb.KindBadHeaderSize,
	header.KindNoColumns:            ipqsdb.KindNoColumns,
	header.KindBadColumnBlockLength: ipqsdb.KindBadColumnBlockLength,
	header.KindBadRecordSize:        ipqsdb.KindBadRecordSize,
	header.KindMalformedVarint:      ipqsdb.KindMalformedVarint,
	header.KindBadColumnName:        ipqsdb.KindBadColumnName,
	header.KindBadTreeFlag:          ipqsdb.KindBadTreeFlag,
	header.KindEmptyTree:            ipqsdb.KindEmptyTree,
}

// Open converts an error produced while parsing the file header, column
// descriptors, or tree header into an *ipqsdb.OpenError. Non-header
// errors (e.g. plain I/O failures) are wrapped as KindIoOpenFailed.
func Open(err error) error {
	if err == nil {
		return nil
	}
	var herr *header.Error
	if errors.As(err, &herr) {
		kind, ok := headerKinds[herr.Kind]
		if !ok {
			kind = ipqsdb.KindBadHeaderSize
		}
		return ipqsdb.NewOpenError(kind, herr.EID, err)
	}
	return ipqsdb.NewOpenError(ipqsdb.KindIoOpenFailed, 0, err)
}

// Lookup converts an error produced by the tree walker into an
// *ipqsdb.LookupError.
func Lookup(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, tree.ErrNotFound) {
		return ipqsdb.NewLookupError(ipqsdb.KindNotFound, 9, err)
	}
	var terr *tree.Error
	if errors.As(err, &terr) {
		switch terr.Kind {
		case tree.KindAddressExhausted:
			return ipqsdb.NewLookupError(ipqsdb.KindAddressExhausted, 9, err)
		case tree.KindTreeTooDeep:
			return ipqsdb.NewLookupError(ipqsdb.KindTreeTooDeep, 10, err)
		case tree.KindNotFound:
			return ipqsdb.NewLookupError(ipqsdb.KindNotFound, 9, err)
		}
	}
	return ipqsdb.NewLookupError(ipqsdb.KindTruncatedLeaf, 0, err)
}
