package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"ubinan/monitoring-app/internal/export"
	"ubinan/monitoring-app/internal/progress"
	"ubinan/monitoring-app/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExport writes body and then fails with err, if set.
type stubExport struct {
	body string
	err  error
}

func (s stubExport) BuildReport(context.Context, service.Actor, progress.Query) (*export.Report, error) {
	return nil, s.err
}

func (s stubExport) Write(_ context.Context, _ service.Actor, _ progress.Query, w io.Writer) error {
	if _, err := io.WriteString(w, s.body); err != nil {
		return err
	}
	return s.err
}

func (s stubExport) Publish(context.Context, service.Actor, progress.Query) (*service.PublishedReport, error) {
	return nil, s.err
}

func TestWriteReportFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "ubinan-2024.xlsx")

	err := writeReportFile(context.Background(), stubExport{body: "partial", err: service.ErrAccessDenied}, service.Actor{}, progress.Query{Year: 2024}, out)
	require.ErrorIs(t, err, service.ErrAccessDenied)
	_, statErr := os.Stat(out)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "failed export must not leave a file")

	require.NoError(t, writeReportFile(context.Background(), stubExport{body: "workbook"}, service.Actor{}, progress.Query{Year: 2024}, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "workbook", string(data))
}
