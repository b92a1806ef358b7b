package dispatch

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, method, tpl string, opts ...RouteOption) *Route {
	t.Helper()
	rt, err := Compile(method, tpl, noopHandler, opts...)
	require.NoError(t, err)
	return rt
}

func TestTableAdd(t *testing.T) {
	t.Run("unnamed routes never collide", func(t *testing.T) {
		table := NewTable()
		require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/a")))
		require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/b")))
		assert.Equal(t, 2, table.Len())
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		table := NewTable()
		require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/a", WithName("home"))))

		err := table.Add(mustCompile(t, http.MethodGet, "/b", WithName("home")))
		assert.ErrorIs(t, err, ErrDuplicateRouteName)
		assert.Equal(t, 1, table.Len())
	})

	t.Run("re-registration after clear", func(t *testing.T) {
		table := NewTable()
		require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/a", WithName("home"))))
		table.Clear()
		assert.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/a", WithName("home"))))
	})
}

func TestTableSortOrder(t *testing.T) {
	table := NewTable()

	// Registered least specific first on purpose.
	require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/users/{id}")))
	require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/users/admin")))
	require.NoError(t, table.Add(mustCompile(t, http.MethodDelete, "/users/{id}")))

	all := table.All()
	require.Len(t, all, 3)

	// Method ascending groups DELETE before GET; specificity descending
	// puts the static GET route ahead of the parameterized one.
	assert.Equal(t, http.MethodDelete, all[0].Method())
	assert.Equal(t, "/users/admin", all[1].Template())
	assert.Equal(t, "/users/{id}", all[2].Template())
}

func TestTableSortStability(t *testing.T) {
	table := NewTable()

	// Identical specificity: insertion order must break the tie.
	first := mustCompile(t, http.MethodGet, "/a/{x}")
	second := mustCompile(t, http.MethodGet, "/b/{y}")
	require.NoError(t, table.Add(first))
	require.NoError(t, table.Add(second))

	all := table.All()
	assert.Same(t, first, all[0])
	assert.Same(t, second, all[1])
}

func TestTableGetByName(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/users/{id}", WithName("users.show"))))
	require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/users/admin", WithName("users.admin"))))

	rt, ok := table.GetByName("users.show")
	require.True(t, ok)
	assert.Equal(t, "/users/{id}", rt.Template())

	_, ok = table.GetByName("missing")
	assert.False(t, ok)
}

func TestTableSnapshotRoundTrip(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/users/{id}", WithName("users.show"))))
	require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/users/admin")))
	require.NoError(t, table.Add(mustCompile(t, http.MethodPost, "/users", WithName("users.create"))))

	restored := NewTable()
	restored.Import(table.Export())

	original := table.All()
	imported := restored.All()
	require.Len(t, imported, len(original))
	for i := range original {
		assert.Same(t, original[i], imported[i])
	}

	rt, ok := restored.GetByName("users.create")
	require.True(t, ok)
	assert.Equal(t, "/users", rt.Template())

	// Duplicate-name detection still applies after import.
	err := restored.Add(mustCompile(t, http.MethodGet, "/other", WithName("users.show")))
	assert.ErrorIs(t, err, ErrDuplicateRouteName)
}

func TestTableObserver(t *testing.T) {
	table := NewTable()

	var seen []RouteInfo
	table.Observe(func(info RouteInfo) {
		seen = append(seen, info)
	})

	require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/users/{id}", WithName("users.show"))))
	require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/unnamed")))

	// Only named routes reach the URL-generation collaborator.
	require.Len(t, seen, 1)
	assert.Equal(t, "users.show", seen[0].Name)
	assert.Equal(t, "/users/{id}", seen[0].Template)
	assert.Equal(t, http.MethodGet, seen[0].Method)
	assert.Equal(t, []string{"id"}, seen[0].ParamNames)
}

func TestTableSortLeavesHandedOutSlices(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/users/{id}")))
	require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/users/admin")))

	before := table.All()
	snapshot := append([]*Route(nil), before...)

	// DELETE sorts ahead of GET, so an in-place re-sort would shuffle
	// the slice handed out above.
	require.NoError(t, table.Add(mustCompile(t, http.MethodDelete, "/users/{id}")))
	after := table.All()
	assert.Equal(t, http.MethodDelete, after[0].Method())

	for i := range snapshot {
		assert.Same(t, snapshot[i], before[i])
	}
}

func TestTableConcurrentAddAndAll(t *testing.T) {
	table := NewTable()
	for i := 0; i < 50; i++ {
		require.NoError(t, table.Add(mustCompile(t, http.MethodGet, fmt.Sprintf("/seed/%d", i))))
	}

	// Compiled up front; the goroutine below only registers. DELETE
	// routes sort to the front, so every Add reorders the table.
	live := make([]*Route, 100)
	for i := range live {
		live[i] = mustCompile(t, http.MethodDelete, fmt.Sprintf("/live/%d", i))
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			for _, rt := range table.All() {
				_ = rt.Template()
			}
		}
	}()

	go func() {
		defer wg.Done()
		for _, rt := range live {
			if err := table.Add(rt); err != nil {
				t.Error(err)
			}
			_ = table.All()
		}
	}()

	wg.Wait()
	assert.Equal(t, 150, table.Len())
}

func TestTableLazySort(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/users/{id}")))

	// First read sorts.
	_ = table.All()

	// A later add dirties the table again; the next read re-sorts.
	require.NoError(t, table.Add(mustCompile(t, http.MethodGet, "/users/admin")))
	all := table.All()
	assert.Equal(t, "/users/admin", all[0].Template())
}
