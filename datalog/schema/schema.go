// Package schema holds the attribute metadata the algebrizer consults to
// turn a bare keyword into a typed, cardinality- and uniqueness-aware
// column reference. Schema itself is a read-only snapshot: bootstrapping
// and persisting it is an external collaborator's job (the transactor),
// not this package's.
package schema

import (
	"fmt"
	"sync"

	"github.com/relidb/relidb/datalog"
)

// Cardinality is whether an attribute may hold one or many values per
// entity.
type Cardinality int

const (
	CardinalityOne Cardinality = iota
	CardinalityMany
)

// Attribute describes one schema attribute: its value type, cardinality,
// and the indexing flags the algebrizer needs to pick the right table and
// constrain variable types.
type Attribute struct {
	Ident      datalog.Keyword
	Entid      datalog.Entid
	ValueType  datalog.ValueType
	Cardinality Cardinality
	Unique     bool
	Index      bool
	Fulltext   bool
	Component  bool
}

// IsMany reports whether the attribute is cardinality-many.
func (a Attribute) IsMany() bool { return a.Cardinality == CardinalityMany }

// Schema is the bidirectional ident <-> entid mapping plus per-attribute
// metadata that the algebrizer consults to resolve a pattern's attribute
// position. Safe for concurrent read access; Schema is built once by the
// caller and handed to the algebrizer as an immutable snapshot.
type Schema struct {
	mu         sync.RWMutex
	byIdent    map[string]*Attribute
	byEntid    map[datalog.Entid]*Attribute
}

// New builds an empty schema.
func New() *Schema {
	return &Schema{
		byIdent: make(map[string]*Attribute),
		byEntid: make(map[datalog.Entid]*Attribute),
	}
}

// Add registers an attribute. It is an error to register the same ident or
// entid twice.
func (s *Schema) Add(attr Attribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := attr.Ident.String()
	if _, ok := s.byIdent[key]; ok {
		return fmt.Errorf("schema: attribute %s already registered", key)
	}
	if _, ok := s.byEntid[attr.Entid]; ok {
		return fmt.Errorf("schema: entid %d already registered", attr.Entid)
	}

	a := attr
	s.byIdent[key] = &a
	s.byEntid[attr.Entid] = &a
	return nil
}

// AttributeByIdent looks up an attribute by its keyword ident. The lookup
// is exact: a reversed keyword (:ns/_name) does not match the forward
// attribute, so callers unwrap reversal first and pass the forward form.
func (s *Schema) AttributeByIdent(ident datalog.Keyword) (Attribute, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byIdent[ident.String()]
	if !ok {
		return Attribute{}, false
	}
	return *a, true
}

// AttributeByEntid looks up an attribute by its entid.
func (s *Schema) AttributeByEntid(e datalog.Entid) (Attribute, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byEntid[e]
	if !ok {
		return Attribute{}, false
	}
	return *a, true
}

// EntidForIdent resolves a keyword to its entid, the way an attribute
// reference resolves to the integer the datoms table actually stores.
func (s *Schema) EntidForIdent(ident datalog.Keyword) (datalog.Entid, bool) {
	a, ok := s.AttributeByIdent(ident)
	if !ok {
		return 0, false
	}
	return a.Entid, true
}
