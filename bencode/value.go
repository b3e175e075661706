package bencode

import (
	"bytes"
	"sort"
)

// Kind enumerates the four value kinds of the encoding.
type Kind int

const (
	// String is a raw byte string.
	String Kind = iota
	// Integer is a signed 64-bit integer.
	Integer
	// List is an ordered sequence of values.
	List
	// Dict is a mapping from byte-string keys to values, ordered by key.
	Dict
)

// Value is one decoded value. Ownership is tree shaped: a value owns its
// children and is never shared between parents.
type Value struct {
	kind Kind
	str  []byte
	num  int64
	list []*Value
	dict []DictItem
}

// DictItem is a single key/value pair of a dictionary.
type DictItem struct {
	Key   string
	Value *Value
}

// NewString returns a string value.
func NewString(s string) *Value {
	return &Value{kind: String, str: []byte(s)}
}

// NewBytes returns a string value holding b. The slice is not copied.
func NewBytes(b []byte) *Value {
	return &Value{kind: String, str: b}
}

// NewInteger returns an integer value.
func NewInteger(n int64) *Value {
	return &Value{kind: Integer, num: n}
}

// NewList returns a list value holding items.
func NewList(items ...*Value) *Value {
	return &Value{kind: List, list: items}
}

// NewDict returns an empty dictionary value.
func NewDict() *Value {
	return &Value{kind: Dict}
}

// Kind returns the kind of v.
func (v *Value) Kind() Kind { return v.kind }

// StringBytes returns the raw bytes of a string value, nil for other kinds.
func (v *Value) StringBytes() []byte {
	if v.kind != String {
		return nil
	}
	return v.str
}

// String returns the bytes of a string value as a Go string.
func (v *Value) String() string {
	return string(v.StringBytes())
}

// Int64 returns the value of an integer, 0 for other kinds.
func (v *Value) Int64() int64 {
	if v.kind != Integer {
		return 0
	}
	return v.num
}

// List returns the items of a list value, nil for other kinds.
func (v *Value) List() []*Value {
	if v.kind != List {
		return nil
	}
	return v.list
}

// Append adds an item to a list value.
func (v *Value) Append(item *Value) {
	v.list = append(v.list, item)
}

// Dict returns the items of a dictionary in key order, nil for other kinds.
func (v *Value) Dict() []DictItem {
	if v.kind != Dict {
		return nil
	}
	return v.dict
}

// Get returns the value stored under key, or nil if v is not a dictionary or
// the key is absent.
func (v *Value) Get(key string) *Value {
	if v.kind != Dict {
		return nil
	}
	i := v.search(key)
	if i < len(v.dict) && v.dict[i].Key == key {
		return v.dict[i].Value
	}
	return nil
}

// Set stores val under key, keeping the dictionary sorted by raw key bytes.
// An existing value under the same key is replaced.
func (v *Value) Set(key string, val *Value) {
	i := v.search(key)
	if i < len(v.dict) && v.dict[i].Key == key {
		v.dict[i].Value = val
		return
	}
	v.dict = append(v.dict, DictItem{})
	copy(v.dict[i+1:], v.dict[i:])
	v.dict[i] = DictItem{Key: key, Value: val}
}

func (v *Value) search(key string) int {
	return sort.Search(len(v.dict), func(i int) bool {
		return v.dict[i].Key >= key
	})
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case String:
		return bytes.Equal(a.str, b.str)
	case Integer:
		return a.num == b.num
	case List:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case Dict:
		if len(a.dict) != len(b.dict) {
			return false
		}
		for i := range a.dict {
			if a.dict[i].Key != b.dict[i].Key || !Equal(a.dict[i].Value, b.dict[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
