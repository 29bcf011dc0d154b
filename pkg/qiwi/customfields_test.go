package qiwi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFieldsRoundTrip(t *testing.T) {
	fields, err := NewCustomFields([]PaySource{PaySourceQW, PaySourceCard}, "")
	require.NoError(t, err)

	payload := fields.Payload()
	require.NotNil(t, payload)
	require.NotNil(t, payload.PaySourcesFilter)
	assert.Equal(t, "qw,card", *payload.PaySourcesFilter)

	rebuilt, err := CustomFieldsFromPayload(*payload)
	require.NoError(t, err)
	assert.Equal(t, []PaySource{PaySourceQW, PaySourceCard}, rebuilt.PaySourcesFilter)
}

func TestCustomFieldsBothAbsent(t *testing.T) {
	fields, err := NewCustomFields(nil, "")
	require.NoError(t, err)

	assert.Nil(t, fields.PaySourcesFilter)
	assert.Nil(t, fields.ThemeCode)
	assert.Nil(t, fields.Payload())
}

func TestCustomFieldsThemeCodeLimit(t *testing.T) {
	_, err := NewCustomFields(nil, strings.Repeat("x", 256))
	assert.ErrorIs(t, err, ErrInvalidThemeCode)

	fields, err := NewCustomFields(nil, strings.Repeat("x", 255))
	require.NoError(t, err)
	require.NotNil(t, fields.ThemeCode)
}

func TestCustomFieldsPatchDropsEmptyEntries(t *testing.T) {
	filter := "qw,,card,"
	fields := &CustomFields{}
	fields.Patch(CustomFieldsPayload{PaySourcesFilter: &filter})

	assert.Equal(t, []PaySource{PaySourceQW, PaySourceCard}, fields.PaySourcesFilter)
}

func TestCustomFieldsPresentButEmptyFilter(t *testing.T) {
	empty := ""
	fields := &CustomFields{}
	fields.Patch(CustomFieldsPayload{PaySourcesFilter: &empty})

	// Present-but-empty is distinct from absent.
	require.NotNil(t, fields.PaySourcesFilter)
	assert.Len(t, fields.PaySourcesFilter, 0)
}

func TestCustomFieldsPatchResetsAbsentFields(t *testing.T) {
	fields, err := NewCustomFields([]PaySource{PaySourceQW}, "theme-1")
	require.NoError(t, err)

	fields.Patch(CustomFieldsPayload{})

	assert.Nil(t, fields.PaySourcesFilter)
	assert.Nil(t, fields.ThemeCode)
}
