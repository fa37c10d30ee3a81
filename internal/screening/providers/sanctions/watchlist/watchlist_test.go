package watchlist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskwatch/internal/screening/providers"
)

func testList(t *testing.T) *List {
	t.Helper()
	l, err := New([]Entry{
		{Name: "Viktor Drogomir", Aliases: []string{"V. Drogomir"}, Country: "RU", Category: CategorySanctions, Lists: []string{"OFAC-SDN", "EU-CONSOLIDATED"}},
		{Name: "Helmut Varga", Country: "AT", Category: CategoryPEP, Lists: []string{"EU-PEP"}},
	}, 0.8)
	require.NoError(t, err)
	return l
}

func screen(t *testing.T, l *List, name, country string) []providers.MatchRecord {
	t.Helper()
	out, err := l.ScreenPerson(context.Background(), providers.Query{SubjectName: name, CountryISO: country})
	require.NoError(t, err)
	return out
}

func TestScreenPerson(t *testing.T) {
	l := testList(t)

	t.Run("exact match ignores case and spacing", func(t *testing.T) {
		out := screen(t, l, "  viktor   DROGOMIR ", "RU")
		require.Len(t, out, 1)
		assert.Equal(t, providers.KindSanctionsListHit, out[0].Kind)
		assert.Equal(t, 100, out[0].Confidence)
		assert.Equal(t, []string{"OFAC-SDN", "EU-CONSOLIDATED"}, out[0].ListNames)
	})

	t.Run("alias match", func(t *testing.T) {
		out := screen(t, l, "V. Drogomir", "RU")
		require.Len(t, out, 1)
		assert.Equal(t, 95, out[0].Confidence)
	})

	t.Run("fuzzy match above threshold", func(t *testing.T) {
		out := screen(t, l, "Viktor Drogomyr", "RU")
		require.Len(t, out, 1)
		assert.Equal(t, 93, out[0].Confidence)
	})

	t.Run("country mismatch lowers confidence", func(t *testing.T) {
		out := screen(t, l, "Helmut Varga", "DE")
		require.Len(t, out, 1)
		assert.Equal(t, providers.KindPEPHit, out[0].Kind)
		assert.Equal(t, 80, out[0].Confidence)
	})

	t.Run("unrelated name is clean", func(t *testing.T) {
		assert.Empty(t, screen(t, l, "John Smith", "US"))
	})
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(nil, 0)
	assert.Error(t, err)

	_, err = New([]Entry{{Name: "x", Category: "weapons"}}, 0.8)
	assert.Error(t, err)

	_, err = New([]Entry{{Name: " ", Category: CategoryPEP}}, 0.8)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Run("bundled list", func(t *testing.T) {
		l, err := Load("", 0.8)
		require.NoError(t, err)
		assert.Positive(t, l.Len())
		assert.Empty(t, screen(t, l, "John Smith", "US"))
	})

	t.Run("list from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "list.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"entries":[{"name":"Jane Roe","category":"pep","lists":["X"]}]}`), 0o600))
		l, err := Load(path, 0.9)
		require.NoError(t, err)
		assert.Equal(t, 1, l.Len())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"), 0.8)
		assert.Error(t, err)
	})
}
