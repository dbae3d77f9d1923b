package httpapi

import (
	"encoding/json"
	"io"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/server/models"
)

// cleanInput turns non-breaking spaces into plain spaces and trims the value.
func cleanInput(v string) string {
	return strings.TrimSpace(strings.ReplaceAll(v, "\u00a0", " "))
}

func cleanFields(f *models.ApplicationFields) {
	for _, p := range f.Pointers() {
		s := p.(*string)
		*s = cleanInput(*s)
	}
}

func cleanActivities(in []models.Activity) []models.Activity {
	out := make([]models.Activity, len(in))
	for i, a := range in {
		out[i] = models.Activity{
			Type:     cleanInput(a.Type),
			Position: cleanInput(a.Position),
			Org:      cleanInput(a.Org),
			Desc:     cleanInput(a.Desc),
		}
	}
	return out
}

// fieldsFromForm reads every content field by its column name.
func fieldsFromForm(form url.Values) models.ApplicationFields {
	var f models.ApplicationFields
	ptrs := f.Pointers()
	for i, col := range f.Columns() {
		*(ptrs[i].(*string)) = cleanInput(form.Get(col))
	}
	return f
}

// activitiesFromForm zips the parallel activity_*[] lists. The type list
// decides how many activities there are.
func activitiesFromForm(form url.Values) []models.Activity {
	types := form["activity_type[]"]
	at := func(key string, i int) string {
		if vs := form[key]; i < len(vs) {
			return vs[i]
		}
		return ""
	}

	out := make([]models.Activity, 0, len(types))
	for i, t := range types {
		out = append(out, models.Activity{
			Type:     t,
			Position: at("activity_position[]", i),
			Org:      at("activity_org[]", i),
			Desc:     at("activity_desc[]", i),
		})
	}
	return cleanActivities(out)
}

type autosaveRequest struct {
	models.ApplicationFields
	Activities []models.Activity `json:"activities"`
}

func decodeAutosaveJSON(body io.Reader) (models.ApplicationFields, []models.Activity, error) {
	var req autosaveRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return models.ApplicationFields{}, nil, common.ErrorInvalidInput
	}
	cleanFields(&req.ApplicationFields)
	return req.ApplicationFields, cleanActivities(req.Activities), nil
}
