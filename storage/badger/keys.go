package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/dragnet-io/dragnet/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "doc"
	entityPrefix   = "ent"
	tokenPrefix    = "tok"
	domainPrefix   = "dom"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeEntityKey generates a key for an entity by (kind, name).
// Format: prefix:kind:name
func makeEntityKey(kind, name string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", entityPrefix, kind, name))
}

// makeTokenKey generates a composite key for the keyword posting list.
// Format: prefix:token:id with the ID written in BigEndian so entries for
// one token sort contiguously.
func makeTokenKey(token string, id core.ID) []byte {
	prefix := tokenPrefix + ":" + token + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialTokenKey generates the scan prefix for one token's postings.
func makePartialTokenKey(token string) []byte {
	return []byte(tokenPrefix + ":" + token + ":")
}

// makeDomainKey generates a composite key for the domain adjacency index.
// Format: prefix:domain:id
func makeDomainKey(domain string, id core.ID) []byte {
	prefix := domainPrefix + ":" + domain + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDomainKey generates the scan prefix for one domain's documents.
func makePartialDomainKey(domain string) []byte {
	return []byte(domainPrefix + ":" + domain + ":")
}

// idFromCompositeKey reads the trailing BigEndian document ID off a
// posting-list or adjacency key.
func idFromCompositeKey(key []byte) (core.ID, bool) {
	if len(key) < 8 {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:])), true
}
