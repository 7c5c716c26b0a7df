package opener

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCommand(t *testing.T) {
	cases := []struct {
		goos     string
		wantName string
		wantArgs []string
	}{
		{"darwin", "open", []string{"/tmp/a.md"}},
		{"windows", "cmd", []string{"/c", "start", "", "/tmp/a.md"}},
		{"linux", "xdg-open", []string{"/tmp/a.md"}},
		{"freebsd", "xdg-open", []string{"/tmp/a.md"}},
	}
	for _, tc := range cases {
		name, args := (&System{goos: tc.goos}).Command("/tmp/a.md")
		if name != tc.wantName {
			t.Errorf("%s: name = %q, want %q", tc.goos, name, tc.wantName)
		}
		if diff := cmp.Diff(tc.wantArgs, args); diff != "" {
			t.Errorf("%s: args (-want +got):\n%s", tc.goos, diff)
		}
	}
}
