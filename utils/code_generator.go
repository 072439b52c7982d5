package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const trackingPrefix = "IA"

// GenerateTrackingID 生成形如 IA-20250101-A1B2C3 的追踪号，随机段取自 uuid
func GenerateTrackingID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return trackingPrefix + "-" + now.Format("20060102") + "-" + suffix
}
