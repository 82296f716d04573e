package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// 发送状态
const (
	StatusSent  = "SENT"
	StatusError = "ERROR"
)

var (
	header = []string{"To", "PDF", "Status", "Reason"}
	bom    = []byte{0xEF, 0xBB, 0xBF}
)

// Entry 一个收件人的发送结果
type Entry struct {
	To     string
	PDF    string
	Status string
	Reason string
}

// SendReport 群发结果，按发送顺序记录
type SendReport struct {
	Entries []Entry
}

// Sent 记录发送成功
func (r *SendReport) Sent(to, pdf string) {
	r.Entries = append(r.Entries, Entry{To: to, PDF: pdf, Status: StatusSent})
}

// Failed 记录发送失败
func (r *SendReport) Failed(to, pdf string, err error) {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	r.Entries = append(r.Entries, Entry{To: to, PDF: pdf, Status: StatusError, Reason: reason})
}

// Count 统计成功和失败数
func (r *SendReport) Count() (sent, failed int) {
	for _, e := range r.Entries {
		if e.Status == StatusSent {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed
}

// WriteCSV 写出带 BOM 的 UTF-8 CSV，Excel 可以直接打开
func (r *SendReport) WriteCSV(w io.Writer) error {
	if _, err := w.Write(bom); err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}
	for _, e := range r.Entries {
		if err := cw.Write([]string{e.To, e.PDF, e.Status, e.Reason}); err != nil {
			return fmt.Errorf("写入报告失败: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Bytes 报告的 CSV 内容
func (r *SendReport) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName 报告文件名 send_report_YYYYMMDD_HHMMSS.csv
func FileName(now time.Time) string {
	return fmt.Sprintf("send_report_%s.csv", now.Format("20060102_150405"))
}
