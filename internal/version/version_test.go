// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package version

import (
	"flag"
	"os"
	"runtime/debug"
	"testing"

	"go.astrophena.name/moodbot/internal/testutil"
)

var update = flag.Bool("update", false, "update golden files in testdata")

// readBuildInfo loads a [debug.BuildInfo] fixture from path.
func readBuildInfo(t *testing.T, path string) func() (*debug.BuildInfo, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	bi := testutil.UnmarshalJSON[debug.BuildInfo](t, b)
	return func() (*debug.BuildInfo, bool) { return &bi, true }
}

func TestLoadInfo(t *testing.T) {
	t.Parallel()

	testutil.RunGolden(t, "testdata/buildinfo/*.json", func(t *testing.T, match string) []byte {
		return []byte(loadInfo(readBuildInfo(t, match)).String())
	}, *update)
}

func TestLoadInfoUnavailable(t *testing.T) {
	t.Parallel()

	i := loadInfo(func() (*debug.BuildInfo, bool) { return nil, false })
	testutil.AssertEqual(t, i.Name, "unknown")
	testutil.AssertEqual(t, i.Version, "devel")
}

func TestUserAgent(t *testing.T) {
	t.Parallel()

	testutil.RunGolden(t, "testdata/useragent/*.json", func(t *testing.T, match string) []byte {
		return []byte(userAgent(loadInfo(readBuildInfo(t, match))))
	}, *update)
}

func TestInfoString(t *testing.T) {
	t.Parallel()

	testutil.RunGolden(t, "testdata/info/*.json", func(t *testing.T, match string) []byte {
		b, err := os.ReadFile(match)
		if err != nil {
			t.Fatal(err)
		}
		return []byte(testutil.UnmarshalJSON[Info](t, b).String())
	}, *update)
}
