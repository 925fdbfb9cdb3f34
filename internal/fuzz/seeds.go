package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxFuzzInput = 1 << 16 // 64 KiB
	maxSeedBytes = 64 << 10
)

// lineSeeds cover every grammar plus the skip-retry and malformed shapes.
var lineSeeds = []string{
	"Unconditional Branch Value:a.c:1:1",
	"Merge Br Guard:a.c:3:7 1 a.c:4:1",
	"Switch Guard:a.c:3:7 0 NullLoc",
	"IndirectBr Guard:null 1 a.c:9:9",
	"Loop Hit:a.c:10:3 at count1",
	"Loop Limit Exceed:a.c:10:3 at count 1000",
	"Out of Loop:a.c:10:3 a.c:14:1 at count2",
	"Loop end without loop start:a.c:10:3 a.c:14:1",
	"Recur Lock locked",
	"Recur Lock released",
	"Thread Creation:a.c:30:5 4243",
	"Br Guard:a.c:1:1 a.c:2:2 1 a.c:3:3",
	"enter main(int, char **)",
	"Function Invocation: a.c:16:10 enter decode(struct buf *)",
	"Function Invocation: a.c:16:10 Function Invocation: a.c:1:1 enter f()",
	"Function Invocation: a.c:16:10 garbage",
	"return from main(int, char **)",
	"unwind from decode(struct buf *)",
	"enter (",
	"Merge Br Guard:a.c:3:7 2 a.c:4:1",
	"Loop Hit:a.c:0:3 at count1",
	"C:\\src\\a.c:12:4",
	"",
}

func addLineSeeds(f *testing.F) {
	for _, s := range lineSeeds {
		f.Add(s)
	}
}

func addTraceSeeds(f *testing.F) {
	addTestdataSeeds(f)
	f.Add([]byte{})
	f.Add([]byte("enter main()\nreturn from main()\n"))
	f.Add([]byte("return from main()\n"))
	f.Add([]byte("enter f()\nenter g()\nenter f()\nreturn from f()\nreturn from g()\nreturn from f()\n"))
	f.Add([]byte("enter main()\nThread Creation:a.c:1:1 7\nThread Creation:a.c:2:1 7\n"))
	f.Add([]byte("enter main()\r\n\r\nUnconditional Branch Value:a.c:1:1\r\n"))
}

// addTestdataSeeds adds every thread file under testdata/guards.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata", "guards")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
