package fuzztests

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"calltrace/internal/exectree"
	"calltrace/internal/srcloc"
	"calltrace/internal/testkit"
)

// replayTimeout bounds one replay; longer means a hang in the builder.
const replayTimeout = 5 * time.Second

func FuzzReplay(f *testing.F) {
	addTraceSeeds(f)
	cons := srcloc.Constraint{File: "a.c", Range: [4]uint32{1, 1, 1, 9}}

	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		for _, verify := range []bool{false, true} {
			ctx, cancel := context.WithTimeout(context.Background(), replayTimeout)
			tree, err := exectree.BuildReader(ctx, bytes.NewReader(input), "fuzz", exectree.Options{
				Constraint:    &cons,
				TruncCount:    2,
				VerifyReturns: verify,
			})
			cancel()
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					t.Fatalf("replay hang detected on %d bytes: %q", len(input), truncateForLog(input, 200))
				}
				continue
			}
			if err := testkit.CheckTree(tree); err != nil {
				t.Fatalf("invariants broken (verify=%v): %v\ninput: %q", verify, err, truncateForLog(input, 200))
			}
			if tree.Hits > 2 || (tree.Truncated && tree.Hits != 2) {
				t.Fatalf("hit limit not honored: hits=%d truncated=%v", tree.Hits, tree.Truncated)
			}
		}
	})
}

func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(append([]byte(nil), input[:maxLen]...), "..."...)
}
