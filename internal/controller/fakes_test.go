package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_mailmerge/internal/config"
	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/recipient"
)

// fakeDirectory 按查询串返回预设结果
type fakeDirectory struct {
	results   map[string]string
	details   map[string]domain.LookupOutcome
	searchErr map[string]error
	panicOn   string
	searches  []string
	fetches   []string
}

func (f *fakeDirectory) Search(ctx context.Context, query string) (domain.SearchResult, error) {
	f.searches = append(f.searches, query)
	if query == f.panicOn {
		panic("boom")
	}
	if err := f.searchErr[query]; err != nil {
		return domain.SearchResult{}, err
	}
	return domain.SearchResult{URL: f.results[query]}, nil
}

func (f *fakeDirectory) FetchDetails(ctx context.Context, url string) (domain.LookupOutcome, error) {
	f.fetches = append(f.fetches, url)
	return f.details[url], nil
}

// fakeConverter 把 DOCX 内容复制为 PDF，fail 中的文件名返回错误
type fakeConverter struct {
	fail  map[string]bool
	calls int
}

func (f *fakeConverter) Convert(ctx context.Context, docxPath, pdfPath string) error {
	f.calls++
	if f.fail[filepath.Base(docxPath)] {
		return errors.New("conversion failed")
	}
	data, err := os.ReadFile(docxPath)
	if err != nil {
		return err
	}
	return os.WriteFile(pdfPath, data, 0644)
}

// fakeMailer 记录发送的邮件，fail 中的收件人返回错误
type fakeMailer struct {
	mu   sync.Mutex
	sent []domain.Mail
	fail map[string]error
}

func (f *fakeMailer) Send(ctx context.Context, m domain.Mail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[m.To]; err != nil {
		return err
	}
	f.sent = append(f.sent, m)
	return nil
}

// sleepRecorder 记录等待次数，不真正等待
type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func newTestController(t *testing.T, deps Deps, opts ...Option) *Controller {
	t.Helper()
	cfg := config.Default()
	cfg.Directory.Pause = 250 * time.Millisecond
	c := New(cfg, deps, opts...)
	require.NoError(t, c.SetProjectDir(t.TempDir()))
	return c
}

func person(surname, given, patronymic, email string) recipient.Recipient {
	return recipient.Recipient{
		Surname:    surname,
		GivenName:  given,
		Patronymic: patronymic,
		Email:      email,
		Send:       true,
	}
}
