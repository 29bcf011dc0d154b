package qiwi

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// PaySource restricts which payment instruments a payer may use.
type PaySource string

const (
	PaySourceQW   PaySource = "qw"
	PaySourceCard PaySource = "card"
)

// CustomFields is optional per-bill metadata. A nil field means the value
// is absent, as opposed to present and empty.
type CustomFields struct {
	PaySourcesFilter []PaySource
	ThemeCode        *string
}

// NewCustomFields builds custom fields from an ordered list of pay
// sources and a theme code. A nil filter and an empty theme code are
// treated as absent.
func NewCustomFields(filter []PaySource, themeCode string) (*CustomFields, error) {
	var p CustomFieldsPayload
	if filter != nil {
		joined := joinSources(filter)
		p.PaySourcesFilter = &joined
	}
	if themeCode != "" {
		p.ThemeCode = &themeCode
	}
	return CustomFieldsFromPayload(p)
}

// CustomFieldsFromPayload builds custom fields from the wire shape,
// rejecting theme codes longer than 255 characters.
func CustomFieldsFromPayload(p CustomFieldsPayload) (*CustomFields, error) {
	if p.ThemeCode != nil && len(*p.ThemeCode) > 255 {
		return nil, errors.Wrapf(ErrInvalidThemeCode, "%d characters", len(*p.ThemeCode))
	}
	c := &CustomFields{}
	c.Patch(p)
	return c, nil
}

// Patch overwrites both fields from the wire shape. The comma-joined
// filter is split into an ordered list, dropping empty entries; an absent
// wire field resets the in-memory field to nil.
func (c *CustomFields) Patch(p CustomFieldsPayload) {
	if p.PaySourcesFilter != nil {
		parts := strings.Split(*p.PaySourcesFilter, ",")
		c.PaySourcesFilter = lo.FilterMap(parts, func(s string, _ int) (PaySource, bool) {
			return PaySource(s), s != ""
		})
	} else {
		c.PaySourcesFilter = nil
	}

	if p.ThemeCode != nil {
		code := *p.ThemeCode
		c.ThemeCode = &code
	} else {
		c.ThemeCode = nil
	}
}

// Payload returns the wire representation, or nil when both fields are
// absent so the wrapper key is omitted from the request body entirely.
func (c *CustomFields) Payload() *CustomFieldsPayload {
	if c.PaySourcesFilter == nil && c.ThemeCode == nil {
		return nil
	}

	p := &CustomFieldsPayload{}
	if c.PaySourcesFilter != nil {
		joined := joinSources(c.PaySourcesFilter)
		p.PaySourcesFilter = &joined
	}
	if c.ThemeCode != nil {
		code := *c.ThemeCode
		p.ThemeCode = &code
	}
	return p
}

func joinSources(filter []PaySource) string {
	return strings.Join(lo.Map(filter, func(s PaySource, _ int) string {
		return string(s)
	}), ",")
}
