package identity

import (
	"slices"
	"time"

	"hub/pkg/platform/datamap"
)

// AddressMSISDN is the only address type the hub manipulates.
const AddressMSISDN = "msisdn"

// Identity is a profile held by the Identity Service. Details is free-form;
// the hub reads addresses, lang_code, PII fields and *_history lists from it.
type Identity struct {
	ID      string         `json:"id"`
	Details map[string]any `json:"details"`
}

// Clone deep-copies the identity so callers can mutate Details and diff.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	return &Identity{ID: i.ID, Details: datamap.Clone(i.Details)}
}

// Detail returns details[key].
func (i *Identity) Detail(key string) (any, bool) {
	if i.Details == nil {
		return nil, false
	}
	v, ok := i.Details[key]
	return v, ok
}

// DetailString returns details[key] when it is a string.
func (i *Identity) DetailString(key string) string {
	v, _ := i.Detail(key)
	s, _ := v.(string)
	return s
}

// SetDetail sets details[key], allocating Details if needed.
func (i *Identity) SetDetail(key string, value any) {
	if i.Details == nil {
		i.Details = map[string]any{}
	}
	i.Details[key] = value
}

// Section returns the nested map at details[key], creating it when create is set.
func (i *Identity) Section(key string, create bool) map[string]any {
	if v, ok := i.Detail(key); ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	if !create {
		return nil
	}
	m := map[string]any{}
	i.SetDetail(key, m)
	return m
}

// Addresses returns the address map for addrType keyed by address value.
func (i *Identity) Addresses(addrType string) map[string]map[string]any {
	out := map[string]map[string]any{}
	all := i.Section("addresses", false)
	if all == nil {
		return out
	}
	typed, _ := all[addrType].(map[string]any)
	for addr, raw := range typed {
		meta, _ := raw.(map[string]any)
		if meta == nil {
			meta = map[string]any{}
		}
		out[addr] = meta
	}
	return out
}

func isDefault(meta map[string]any) bool {
	b, _ := meta["default"].(bool)
	return b
}

// DefaultAddress returns the default address of addrType. When none is marked
// default the lexically first address is used; "" when there are none.
func (i *Identity) DefaultAddress(addrType string) string {
	addrs := i.Addresses(addrType)
	keys := make([]string, 0, len(addrs))
	for k, meta := range addrs {
		if isDefault(meta) {
			return k
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	slices.Sort(keys)
	return keys[0]
}

// IsPrimaryAddress reports whether addr is the primary entry among this
// identity's addresses of addrType: it is marked default, or no entry is.
func (i *Identity) IsPrimaryAddress(addrType, addr string) bool {
	addrs := i.Addresses(addrType)
	meta, ok := addrs[addr]
	if !ok {
		return false
	}
	if isDefault(meta) {
		return true
	}
	for _, other := range addrs {
		if isDefault(other) {
			return false
		}
	}
	return true
}

// ClaimDefaultAddress marks addr default when no address of addrType is
// flagged yet, keeping its other metadata. It reports whether it changed
// anything; addresses the identity does not hold are left alone.
func (i *Identity) ClaimDefaultAddress(addrType, addr string) bool {
	addrs := i.Addresses(addrType)
	meta, ok := addrs[addr]
	if !ok {
		return false
	}
	for _, other := range addrs {
		if isDefault(other) {
			return false
		}
	}
	meta["default"] = true
	typed, _ := i.Section("addresses", false)[addrType].(map[string]any)
	typed[addr] = meta
	return true
}

// SetDefaultAddress adds addr (if absent) as the default address and marks
// every other address of the same type non-default. Prior entries are kept.
func (i *Identity) SetDefaultAddress(addrType, addr string) {
	all := i.Section("addresses", true)
	typed, _ := all[addrType].(map[string]any)
	if typed == nil {
		typed = map[string]any{}
		all[addrType] = typed
	}
	for k, raw := range typed {
		meta, _ := raw.(map[string]any)
		if meta == nil {
			meta = map[string]any{}
		}
		meta["default"] = false
		typed[k] = meta
	}
	typed[addr] = map[string]any{"default": true}
}

// MarkAddressOptedOut flags addr as opted out without removing it.
func (i *Identity) MarkAddressOptedOut(addrType, addr string) {
	all := i.Section("addresses", true)
	typed, _ := all[addrType].(map[string]any)
	if typed == nil {
		return
	}
	meta, _ := typed[addr].(map[string]any)
	if meta == nil {
		return
	}
	meta["optedout"] = true
}

// AppendHistory appends entry to the append-only list at details[key].
func (i *Identity) AppendHistory(key string, entry map[string]any) {
	var list []any
	if v, ok := i.Detail(key); ok {
		switch existing := v.(type) {
		case []any:
			list = existing
		case []map[string]any:
			for _, e := range existing {
				list = append(list, e)
			}
		}
	}
	i.SetDetail(key, append(list, entry))
}

// HistoryEntry builds a history record stamped with at.
func HistoryEntry(at time.Time, fields map[string]any) map[string]any {
	entry := map[string]any{"timestamp": at.UTC().Format(time.RFC3339)}
	for k, v := range fields {
		entry[k] = v
	}
	return entry
}

// NewAddressDetails returns the minimal details for an identity created from an address.
func NewAddressDetails(addrType, addr string) map[string]any {
	return map[string]any{
		"default_addr_type": addrType,
		"addresses": map[string]any{
			addrType: map[string]any{
				addr: map[string]any{"default": true},
			},
		},
	}
}
