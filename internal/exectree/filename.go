package exectree

import (
	"strconv"
	"strings"
)

const mainSuffix = "_main"

// ParseThreadFileName reads "<tid>" or "<tid>_main".
func ParseThreadFileName(name string) (tid uint64, main bool, ok bool) {
	base, main := strings.CutSuffix(name, mainSuffix)
	tid, err := strconv.ParseUint(base, 10, 64)
	if err != nil {
		return 0, false, false
	}
	return tid, main, true
}

// ThreadFileName is the inverse of ParseThreadFileName.
func ThreadFileName(tid uint64, main bool) string {
	s := strconv.FormatUint(tid, 10)
	if main {
		s += mainSuffix
	}
	return s
}
