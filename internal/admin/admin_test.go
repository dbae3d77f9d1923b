package admin

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/server/export"
	"github.com/dmitrijs2005/admissions/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	sum export.Summary
	err error
}

func (f *fakeExporter) ExportTo(ctx context.Context, w io.Writer) (export.Summary, error) {
	if f.err != nil {
		return export.Summary{}, f.err
	}
	zw := zip.NewWriter(w)
	_, _ = zw.Create("a.pdf")
	return f.sum, zw.Close()
}

type fakeReviewer struct {
	id     int64
	status models.ReviewStatus
	err    error
}

func (f *fakeReviewer) SetReviewStatus(ctx context.Context, appID int64, status models.ReviewStatus) error {
	f.id, f.status = appID, status
	return f.err
}

type fakePasswords struct {
	email, password string
}

func (f *fakePasswords) SetPassword(ctx context.Context, email, password string) error {
	f.email, f.password = email, password
	return nil
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	old := readPassword
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(answers) {
			return nil, errors.New("no input")
		}
		a := answers[i]
		i++
		return []byte(a), nil
	}
	t.Cleanup(func() { readPassword = old })
}

func TestRun_Usage(t *testing.T) {
	c := &Commands{Out: io.Discard}
	assert.ErrorIs(t, c.Run(context.Background(), nil), errUsage)
	assert.ErrorIs(t, c.Run(context.Background(), []string{"frobnicate"}), errUsage)
}

func TestExport_WritesArchive(t *testing.T) {
	var out bytes.Buffer
	c := &Commands{Exporter: &fakeExporter{sum: export.Summary{Exported: 3, Skipped: 1}}, Out: &out}
	path := filepath.Join(t.TempDir(), "nested", "all.zip")

	require.NoError(t, c.Run(context.Background(), []string{"export", "-o", path}))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 1)
	assert.Contains(t, out.String(), "Exported 3 application(s)")
	assert.Contains(t, out.String(), "skipped 1")
}

func TestExport_FailureRemovesFile(t *testing.T) {
	c := &Commands{Exporter: &fakeExporter{err: errors.New("db down")}, Out: io.Discard}
	path := filepath.Join(t.TempDir(), "all.zip")

	err := c.Run(context.Background(), []string{"export", "-o", path})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReview(t *testing.T) {
	r := &fakeReviewer{}
	var out bytes.Buffer
	c := &Commands{Reviewer: r, Out: &out}

	require.NoError(t, c.Run(context.Background(), []string{"review", "-id", "7", "-status", "accepted"}))
	assert.Equal(t, int64(7), r.id)
	assert.Equal(t, models.ReviewAccepted, r.status)
	assert.Contains(t, out.String(), "Application 7 marked accepted")
}

func TestReview_Errors(t *testing.T) {
	c := &Commands{Reviewer: &fakeReviewer{err: common.ErrInvalidReviewStatus}, Out: io.Discard}

	err := c.Run(context.Background(), []string{"review", "-status", "accepted"})
	assert.ErrorContains(t, err, "-id is required")

	err = c.Run(context.Background(), []string{"review", "-id", "1", "-status", "maybe"})
	assert.ErrorIs(t, err, common.ErrInvalidReviewStatus)
}

func TestPasswd(t *testing.T) {
	stubPasswords(t, "correct horse", "correct horse")
	p := &fakePasswords{}
	var out bytes.Buffer
	c := &Commands{Passwords: p, Out: &out}

	require.NoError(t, c.Run(context.Background(), []string{"passwd", "-email", "a@example.com"}))
	assert.Equal(t, "a@example.com", p.email)
	assert.Equal(t, "correct horse", p.password)
	assert.Contains(t, out.String(), "New password: ")
	assert.Contains(t, out.String(), "Password updated for a@example.com")
}

func TestPasswd_Mismatch(t *testing.T) {
	stubPasswords(t, "one password", "another one")
	p := &fakePasswords{}
	c := &Commands{Passwords: p, Out: io.Discard}

	err := c.Run(context.Background(), []string{"passwd", "-email", "a@example.com"})
	assert.EqualError(t, err, "passwords do not match")
	assert.Empty(t, p.email)
}

func TestPasswd_ReadError(t *testing.T) {
	stubPasswords(t)
	c := &Commands{Passwords: &fakePasswords{}, Out: io.Discard}

	err := c.Run(context.Background(), []string{"passwd", "-email", "a@example.com"})
	assert.EqualError(t, err, "no input")
}

func TestPasswd_RequiresEmail(t *testing.T) {
	c := &Commands{Passwords: &fakePasswords{}, Out: io.Discard}
	assert.ErrorContains(t, c.Run(context.Background(), []string{"passwd"}), "-email is required")
}
