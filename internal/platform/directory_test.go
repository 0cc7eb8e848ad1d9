package platform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/desktop-replay/internal/platform"
	"github.com/mj1618/desktop-replay/internal/platform/snapshot"
)

const twoApps = `
frontmost: 2
apps:
  - name: Finder
    pid: 1
    windows:
      - title: Downloads
      - title: Recents
  - name: Mail
    pid: 2
    windows:
      - title: Inbox
        main: true
`

func TestListWindows(t *testing.T) {
	d, err := snapshot.Parse([]byte(twoApps))
	require.NoError(t, err)

	all, err := platform.ListWindows(d, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Downloads", all[0].Title)
	assert.Equal(t, "Mail", all[2].App)

	mail, err := platform.ListWindows(d, "mai")
	require.NoError(t, err)
	require.Len(t, mail, 1)
	assert.Equal(t, "Inbox", mail[0].Title)
	assert.True(t, mail[0].Focused)

	none, err := platform.ListWindows(d, "Xcode")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFrontmostPID(t *testing.T) {
	d, err := snapshot.Parse([]byte(twoApps))
	require.NoError(t, err)
	assert.Equal(t, 2, platform.FrontmostPID(d))
}
