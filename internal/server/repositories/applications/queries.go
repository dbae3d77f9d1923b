package applications

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/admissions/internal/server/models"
)

var (
	fieldColumns = (&models.ApplicationFields{}).Columns()

	selectColumns = "id, user_id, status, review_status, " +
		strings.Join(fieldColumns, ", ") +
		", grade_report_path, upload_path, created_at, submitted_at"

	// SET list for the content fields, bound to $1..$n.
	fieldAssignments = buildAssignments(fieldColumns)

	insertQuery = fmt.Sprintf(
		`INSERT INTO applications (user_id, status, review_status, %s) VALUES ($1, '%s', '%s', %s) RETURNING %s`,
		strings.Join(fieldColumns, ", "),
		models.StatusIncomplete, models.ReviewNone,
		placeholders(2, len(fieldColumns)),
		selectColumns,
	)

	currentQuery = `SELECT ` + selectColumns + ` FROM applications WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`

	currentForUpdateQuery = currentQuery + ` FOR UPDATE`

	byIDQuery = `SELECT ` + selectColumns + ` FROM applications WHERE id = $1`

	listSubmittedQuery = fmt.Sprintf(`SELECT %s FROM applications WHERE status = '%s' ORDER BY id`,
		selectColumns, models.StatusSubmitted)

	updateDraftQuery = fmt.Sprintf(`UPDATE applications SET %s WHERE id = $%d AND status = '%s' RETURNING %s`,
		fieldAssignments, len(fieldColumns)+1, models.StatusIncomplete, selectColumns)

	submitQuery = fmt.Sprintf(
		`UPDATE applications SET %s, status = '%s', submitted_at = $%d, `+
			`grade_report_path = COALESCE($%d, grade_report_path), upload_path = COALESCE($%d, upload_path) `+
			`WHERE id = $%d AND status = '%s' RETURNING %s`,
		fieldAssignments, models.StatusSubmitted,
		len(fieldColumns)+1, len(fieldColumns)+2, len(fieldColumns)+3, len(fieldColumns)+4,
		models.StatusIncomplete, selectColumns)

	setReviewStatusQuery = `UPDATE applications SET review_status = $1 WHERE id = $2`
)

func buildAssignments(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	return strings.Join(parts, ", ")
}

func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}
