// Package sqlscript renders a code batch as the MySQL script consumed by the
// database team: header comments, one multi-row INSERT and two report queries.
package sqlscript

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// TimeLayout is the header timestamp format (YYYY-MM-DD HH:MM:SS).
const TimeLayout = "2006-01-02 15:04:05"

// Script is everything Render needs. It holds no behaviour of its own.
type Script struct {
	Codes       []string
	Requested   int
	GeneratedAt time.Time
	UsageHint   string
}

// Trailing blanks in the report queries match scripts produced by earlier versions.
var latestQuery = strings.Join([]string{
	"-- 显示最新插入的20个激活码",
	"SELECT ",
	"    serial_number as '激活码',",
	"    CASE status ",
	"        WHEN 0 THEN '未使用' ",
	"        WHEN 1 THEN '已使用' ",
	"    END as '状态',",
	"    created_at as '创建时间'",
	"FROM serial_numbers",
	"ORDER BY created_at DESC",
	"LIMIT 20;",
	"",
}, "\n")

var statsQuery = strings.Join([]string{
	"-- 统计信息",
	"SELECT ",
	"    COUNT(*) as '总激活码数',",
	"    SUM(CASE WHEN status = 0 THEN 1 ELSE 0 END) as '未使用数',",
	"    SUM(CASE WHEN status = 1 THEN 1 ELSE 0 END) as '已使用数'",
	"FROM serial_numbers;",
	"",
}, "\n")

// Render writes s to w. A batch shorter than Requested gets a warning line
// first. An empty batch omits the INSERT, since VALUES with no rows is not valid SQL.
func Render(w io.Writer, s Script) error {
	bw := bufio.NewWriter(w)

	if len(s.Codes) < s.Requested {
		fmt.Fprintf(bw, "-- 警告：只生成了 %d 个激活码（目标：%d）\n", len(s.Codes), s.Requested)
	}

	fmt.Fprintln(bw, "-- 激活码批量插入脚本")
	fmt.Fprintf(bw, "-- 生成时间：%s\n", s.GeneratedAt.Format(TimeLayout))
	fmt.Fprintf(bw, "-- 激活码数量：%d\n", len(s.Codes))
	fmt.Fprintf(bw, "-- 使用方法：%s\n", s.UsageHint)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "-- 开始插入")
	if len(s.Codes) == 0 {
		fmt.Fprintln(bw, "-- 没有可插入的激活码")
	} else {
		fmt.Fprintln(bw, "INSERT INTO serial_numbers (serial_number, status) VALUES")
		last := len(s.Codes) - 1
		for i, code := range s.Codes {
			term := ","
			if i == last {
				term = ";"
			}
			fmt.Fprintf(bw, "  ('%s', 0)%s\n", quote(code), term)
		}
	}

	fmt.Fprintln(bw)
	bw.WriteString(latestQuery)
	fmt.Fprintln(bw)
	bw.WriteString(statsQuery)

	return bw.Flush()
}

// quote escapes single quotes for a MySQL string literal. Generated codes never
// contain one; this only matters for hand-supplied batches.
func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
