//go:build integration

package rod_test

import (
	"testing"

	"github.com/fwojciec/linkmap/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserManager_Acquire(t *testing.T) {
	t.Parallel()

	t.Run("recycles browser after max pages", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager(rod.WithMaxPages(3))
		require.NoError(t, err)
		defer manager.Close()

		first, release := manager.Acquire()
		require.NotNil(t, first)
		release()
		for range 2 {
			_, release := manager.Acquire()
			release()
		}

		second, release := manager.Acquire()
		defer release()

		require.NotNil(t, second)
		assert.NotSame(t, first, second)
	})

	t.Run("does not recycle before max pages", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager(rod.WithMaxPages(5))
		require.NoError(t, err)
		defer manager.Close()

		first, release := manager.Acquire()
		release()
		same, release := manager.Acquire()
		release()

		assert.Same(t, first, same)
	})

	t.Run("leased browser survives recycling", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager(rod.WithMaxPages(1))
		require.NoError(t, err)
		defer manager.Close()

		leased, release := manager.Acquire()
		require.NotNil(t, leased)

		next, releaseNext := manager.Acquire()
		defer releaseNext()
		require.NotSame(t, leased, next)

		_, err = leased.Pages()
		require.NoError(t, err, "retired browser closed while leased")
		release()
	})

	t.Run("returns nil after close", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager()
		require.NoError(t, err)
		require.NoError(t, manager.Close())
		require.NoError(t, manager.Close())

		browser, release := manager.Acquire()
		release()

		assert.Nil(t, browser)
		assert.Zero(t, manager.LauncherPID())
	})
}
