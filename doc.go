// Package ipqsdb defines the shared, reader-agnostic surface of the
// flat-file IP reputation database client: the Record interface every
// reader facade implements, the Strictness enum used to select a fraud
// score, and the error taxonomy raised by both facades.
//
// The format itself — file header, column descriptors, binary prefix
// tree, and leaf records — is decoded by the internal packages under
// internal/. Two concrete readers consume them:
//
//   - package streaming: seek/read on demand over an io.ReadSeeker.
//   - package resident: the whole file held in contiguous memory.
//
// Both return values satisfying Record and, for any given file and
// address, must agree on every accessor.
package ipqsdb
