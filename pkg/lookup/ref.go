// Package lookup turns client references to lookup records into canonical
// records and projects stored entities into their enriched read shape.
package lookup

import (
	"strconv"
	"strings"
)

type refKind int

const (
	refUnset refKind = iota
	refID
	refName
	refIdentifier
)

// Ref is a client reference to a lookup record: by id, by name, or by an
// identifier that may be either a name or a short form. The zero Ref is unset.
type Ref struct {
	kind refKind
	id   int
	name string
}

func ByID(id int) Ref {
	return Ref{kind: refID, id: id}
}

func ByName(name string) Ref {
	return Ref{kind: refName, name: name}
}

func ByIdentifier(identifier string) Ref {
	return Ref{kind: refIdentifier, name: identifier}
}

// ByIDOrName refers to id and falls back to get-or-create by name when id does
// not exist.
func ByIDOrName(id int, name string) Ref {
	return Ref{kind: refID, id: id, name: name}
}

// ParseRef builds a Ref from the "<field>_id" and "<field>_name" pair of a payload.
func ParseRef(id *int, name string) Ref {
	name = strings.TrimSpace(name)

	switch {
	case id != nil && *id > 0:
		return ByIDOrName(*id, name)
	case name != "":
		return ByName(name)
	default:
		return Ref{}
	}
}

// ParseIdentifier builds a name-or-short-form Ref, unset for blank input.
func ParseIdentifier(identifier string) Ref {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Ref{}
	}

	return ByIdentifier(identifier)
}

func (r Ref) IsSet() bool {
	return r.kind != refUnset
}

func (r Ref) ID() (int, bool) {
	return r.id, r.kind == refID
}

func (r Ref) Name() string {
	return r.name
}

func (r Ref) String() string {
	switch r.kind {
	case refID:
		if r.name != "" {
			return "id:" + strconv.Itoa(r.id) + "|name:" + r.name
		}

		return "id:" + strconv.Itoa(r.id)
	case refName:
		return "name:" + r.name
	case refIdentifier:
		return "identifier:" + r.name
	default:
		return "unset"
	}
}
