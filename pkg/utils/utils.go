// Package utils 工具函数
package utils

import (
	"strconv"
	"time"
)

// DefaultTimezone 默认时区
const DefaultTimezone = "Asia/Shanghai"

// LoadLocation 加载时区，name 为空或无效时回退到北京时间，再回退到本地时区
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.Local
}

// FormatDuration 格式化时长显示，如 "1天2小时3分钟"
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return "不到1分钟"
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	result := ""
	if days > 0 {
		result += strconv.Itoa(days) + "天"
	}
	if hours > 0 {
		result += strconv.Itoa(hours) + "小时"
	}
	if minutes > 0 {
		result += strconv.Itoa(minutes) + "分钟"
	}
	return result
}
