package main

import (
	"bytes"
	"strings"
	"testing"

	logpkg "github.com/yggr/vanikey/internal/logger"
	"github.com/yggr/vanikey/pkg/types"
)

func TestReportAdditionalIsOneEntry(t *testing.T) {
	var buf bytes.Buffer
	logger = logpkg.NewWriter(&buf)
	logger.SetFlags(0)
	logger.SetPrefix("[entry] ")

	reportAdditional(types.Match{Prefix: "acd", Npub: "npub1acdxyz", Nsec: "nsec1secret"})

	out := buf.String()
	if n := strings.Count(out, "[entry] "); n != 1 {
		t.Errorf("event written as %d log entries, want 1:\n%s", n, out)
	}
	for _, want := range []string{`Found additional match for "acd"!`, "Public Key (npub): npub1acdxyz", "Private Key (nsec): nsec1secret"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
