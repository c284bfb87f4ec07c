// Package id defines the TypeID-based identifiers used by routeguard
// entities: roles, permissions and check log entries.
//
// Identifiers render as "prefix_suffix" (for example
// "perm_01h2xcejqtf2nbrexx3vqjhp41"), sort by creation time and are safe
// to embed in URLs such as /v1/permissions/:permissionId.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix is the entity tag carried by an ID.
type Prefix string

const (
	PrefixRole       Prefix = "role"
	PrefixPermission Prefix = "perm"
	PrefixCheckLog   Prefix = "chklog"
)

// ID identifies a routeguard entity. The zero value is Nil.
//
//nolint:recvcheck // UnmarshalText and Scan need pointer receivers.
type ID struct {
	tid typeid.TypeID
	ok  bool
}

// Nil is the zero ID. It stores as SQL NULL and marshals to "".
var Nil ID

type (
	// RoleID identifies a role.
	RoleID = ID
	// PermissionID identifies a permission pattern record.
	PermissionID = ID
	// CheckLogID identifies an audit log entry.
	CheckLogID = ID
)

// New returns a fresh ID tagged with prefix. An invalid prefix is a
// programming error and panics.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: generate with prefix %q: %v", prefix, err))
	}
	return ID{tid: tid, ok: true}
}

func NewRoleID() RoleID             { return New(PrefixRole) }
func NewPermissionID() PermissionID { return New(PrefixPermission) }
func NewCheckLogID() CheckLogID     { return New(PrefixCheckLog) }

// Parse decodes s without looking at its prefix.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse: empty string")
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{tid: tid, ok: true}, nil
}

// ParseWithPrefix decodes s and requires its prefix to equal want.
func ParseWithPrefix(s string, want Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if got := parsed.Prefix(); got != want {
		return Nil, fmt.Errorf("id: %q has prefix %q, want %q", s, got, want)
	}
	return parsed, nil
}

func ParseRoleID(s string) (RoleID, error)             { return ParseWithPrefix(s, PrefixRole) }
func ParsePermissionID(s string) (PermissionID, error) { return ParseWithPrefix(s, PrefixPermission) }
func ParseCheckLogID(s string) (CheckLogID, error)     { return ParseWithPrefix(s, PrefixCheckLog) }

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return parsed
}

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.ok {
		return ""
	}
	return i.tid.String()
}

// Prefix returns the entity tag, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.ok {
		return ""
	}
	return Prefix(i.tid.Prefix())
}

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool { return !i.ok }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer; Nil is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.ok {
		return nil, nil //nolint:nilnil // NULL column
	}
	return i.tid.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T", src)
	}
}
