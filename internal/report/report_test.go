package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReport_CSV(t *testing.T) {
	var r SendReport
	r.Sent("ivanova@tatar.ru", "Иванова А.И.pdf")
	r.Failed("petrov@tatar.ru", "Петров П.П.pdf", errors.New("550 mailbox unavailable, try later"))

	sent, failed := r.Count()
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, failed)

	data, err := r.Bytes()
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"To", "PDF", "Status", "Reason"},
		{"ivanova@tatar.ru", "Иванова А.И.pdf", "SENT", ""},
		{"petrov@tatar.ru", "Петров П.П.pdf", "ERROR", "550 mailbox unavailable, try later"},
	}, records)
}

func TestSendReport_Empty(t *testing.T) {
	var r SendReport
	data, err := r.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFTo,PDF,Status,Reason\n", string(data))
}

func TestFileName(t *testing.T) {
	now := time.Date(2026, 3, 8, 9, 5, 7, 0, time.Local)
	assert.Equal(t, "send_report_20260308_090507.csv", FileName(now))
}
