package service

import "strings"

// listMarkerChars 条目前缀里可能出现的字符：项目符号、编号、点和空格
const listMarkerChars = "-•0123456789. "

// ExtractListItems 从模型回复中提取以 "-"、"•" 或 "1." ~ "9." 开头的行，去掉前缀后返回
func ExtractListItems(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !hasListMarker(line) {
			continue
		}
		if item := StripListMarker(line); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ExtractNumberedLines 只保留以 "1." ~ "9." 开头的行，保留编号
func ExtractNumberedLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if startsWithNumber(line) {
			lines = append(lines, line)
		}
	}
	return lines
}

// StripListMarker 去掉前导的项目符号/编号，重复执行结果不变
func StripListMarker(line string) string {
	for {
		next := strings.TrimSpace(strings.TrimLeft(line, listMarkerChars))
		if next == line {
			return line
		}
		line = next
	}
}

func hasListMarker(line string) bool {
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") || startsWithNumber(line)
}

func startsWithNumber(line string) bool {
	return len(line) >= 2 && line[0] >= '1' && line[0] <= '9' && line[1] == '.'
}
