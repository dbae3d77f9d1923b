package httpapi

import (
	"net/url"
	"strings"
	"testing"

	"github.com/dmitrijs2005/admissions/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanInput(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", cleanInput(" Ada Lovelace \n"))
	assert.Equal(t, "", cleanInput("   "))
	assert.Equal(t, "x", cleanInput("x"))
	assert.Equal(t, "Ada Lovelace", cleanInput("\u00a0Ada\u00a0Lovelace\u00a0"))
}

func TestFieldsFromForm(t *testing.T) {
	form := url.Values{
		"student_name":  {" Ada "},
		"essay3":        {"third"},
		"optional_info": {" "},
		"not_a_field":   {"ignored"},
	}

	f := fieldsFromForm(form)
	assert.Equal(t, models.ApplicationFields{StudentName: "Ada", Essay3: "third"}, f)
}

func TestActivitiesFromForm(t *testing.T) {
	form := url.Values{
		"activity_type[]":     {"Chess", " ", "Music"},
		"activity_position[]": {"Captain", "x"},
		"activity_org[]":      {"Club"},
		"activity_desc[]":     {"weekly", "", "choir "},
	}

	got := activitiesFromForm(form)
	require.Len(t, got, 3)
	assert.Equal(t, models.Activity{Type: "Chess", Position: "Captain", Org: "Club", Desc: "weekly"}, got[0])
	assert.Equal(t, models.Activity{Type: "", Position: "x"}, got[1], "blank types are dropped later by the service")
	assert.Equal(t, models.Activity{Type: "Music", Desc: "choir"}, got[2])

	assert.Empty(t, activitiesFromForm(url.Values{}))
}

func TestDecodeAutosaveJSON(t *testing.T) {
	fields, acts, err := decodeAutosaveJSON(strings.NewReader(`{"email":" a@b.c ","activities":[{"type":"Art","desc":" d "}]}`))
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", fields.Email)
	assert.Equal(t, []models.Activity{{Type: "Art", Desc: "d"}}, acts)

	_, _, err = decodeAutosaveJSON(strings.NewReader(`[]`))
	require.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "10 MB", formatBytes(10<<20))
	assert.Equal(t, "1.5 MB", formatBytes(3<<19))
	assert.Equal(t, "2 KB", formatBytes(2048))
	assert.Equal(t, "12 bytes", formatBytes(12))
}
