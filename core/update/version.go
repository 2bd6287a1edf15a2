package update

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// IsNewer 判断 remote 是否比 current 新
// 去掉前缀 v 后按点分数字逐段比较，缺失或无法解析的段视为 0，因此 v2.2.4-beta 等同于 v2.2.0
func IsNewer(remote, current string) bool {
	return Compare(remote, current) > 0
}

// Compare 比较两个版本号，返回 1 / 0 / -1
// 前三段组成 semver 核心版本比较，其余段依次比较
func Compare(a, b string) int {
	pa := splitVersion(a)
	pb := splitVersion(b)

	if c := core(pa).Compare(core(pb)); c != 0 {
		return c
	}

	n := max(len(pa), len(pb))
	for i := 3; i < n; i++ {
		x, y := part(pa, i), part(pb, i)
		if x > y {
			return 1
		}
		if x < y {
			return -1
		}
	}
	return 0
}

func core(parts []uint64) *semver.Version {
	return semver.New(part(parts, 0), part(parts, 1), part(parts, 2), "", "")
}

func part(parts []uint64, i int) uint64 {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

// splitVersion 去掉前缀 v 后按点拆分，无法解析的段按 0 处理
func splitVersion(v string) []uint64 {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ".")
	nums := make([]uint64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			continue
		}
		nums[i] = n
	}
	return nums
}
