package navtrack

import "log"

// Attributes is a free-form mapping of attribute name to a scalar value
// (string, json.Number or bool) describing one fund: source identifiers,
// resolved display name, currency, and cached internal ids used to skip
// expensive re-discovery on subsequent runs.
type Attributes map[string]any

// GetString returns the attribute as a string, or "" when absent or not a string.
func (a Attributes) GetString(key string) string {
	s, _ := a[key].(string)
	return s
}

// Metadata is the single document holding the attributes of every tracked fund.
type Metadata struct {
	Funds map[string]Attributes `json:"funds"`
}

// NewMetadata returns an empty metadata document.
func NewMetadata() *Metadata {
	return &Metadata{Funds: make(map[string]Attributes)}
}

// Fund returns the attributes for the given isin, creating an empty entry if needed.
func (m *Metadata) Fund(isin string) Attributes {
	if m.Funds == nil {
		m.Funds = make(map[string]Attributes)
	}
	attrs, ok := m.Funds[isin]
	if !ok {
		attrs = make(Attributes)
		m.Funds[isin] = attrs
	}
	return attrs
}

// Set records an attribute for a fund and reports whether the stored value changed.
func (m *Metadata) Set(isin, key string, value any) (changed bool) {
	attrs := m.Fund(isin)
	if old, ok := attrs[key]; ok && old == value {
		return false
	}
	attrs[key] = value
	return true
}

// GC deletes the entries of funds that are no longer configured and reports
// whether anything was removed.
func (m *Metadata) GC(active []string) (changed bool) {
	keep := make(map[string]bool, len(active))
	for _, isin := range active {
		keep[isin] = true
	}
	for isin := range m.Funds {
		if !keep[isin] {
			log.Printf("dropping metadata of removed fund %s", isin)
			delete(m.Funds, isin)
			changed = true
		}
	}
	return changed
}
