package main

import (
	"bytes"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"marquee"}, args...))
	return out.String(), err
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{"warn", false},
		{"error", false},
		{"verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := configureLogger(&bytes.Buffer{}, tt.level)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	app := newApp()

	names := make([]string, 0, len(app.Commands))
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.ElementsMatch(t, []string{"search", "import", "build-index", "index-info", "clear-cache"}, names)
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	_, err := runApp(t, "--db", t.TempDir(), "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}

func TestImportCommand_RequiresInput(t *testing.T) {
	_, err := runApp(t, "--db", t.TempDir(), "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input file is required")
}

func TestBuildIndexCommand_ValidatesFlags(t *testing.T) {
	_, err := runApp(t, "--db", t.TempDir(), "build-index", "--pool-size", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool-size must be greater than 0")
}

func TestImportAndIndexInfo(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "db")
	input := filepath.Join(dir, "catalog.jsonl")
	require.NoError(t, os.WriteFile(input, []byte(
		"{\"id\": 1, \"title\": \"Heat\", \"release_year\": 1995}\n"+
			"{\"id\": 2, \"title\": \"\"}\n"+
			"{\"id\": 3, \"title\": \"Ronin\", \"release_year\": 1998}\n"), 0o644))

	out, err := runApp(t, "--db", db, "--log-level", "error", "import", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 of 3 items (1 invalid)")

	out, err = runApp(t, "--db", db, "--log-level", "error", "index-info")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog items:   2")
	assert.Contains(t, out, "not built")
}

func TestConstraintsFromFlags(t *testing.T) {
	newContext := func(args ...string) *cli.Context {
		cmd := newApp().Command("search")
		set := flag.NewFlagSet("search", flag.ContinueOnError)
		for _, f := range cmd.Flags {
			require.NoError(t, f.Apply(set))
		}
		require.NoError(t, set.Parse(args))
		return cli.NewContext(nil, set, nil)
	}

	assert.Nil(t, constraintsFromFlags(newContext("dark", "space", "movies")))

	qc := constraintsFromFlags(newContext("--genre", "Drama", "--genre", "Crime", "--year-min", "1990", "--min-rating", "7.5"))
	require.NotNil(t, qc)
	assert.Equal(t, []string{"Drama", "Crime"}, qc.Genres)
	require.NotNil(t, qc.YearMin)
	assert.Equal(t, 1990, *qc.YearMin)
	assert.Nil(t, qc.YearMax)
	require.NotNil(t, qc.RatingMin)
	assert.Equal(t, 7.5, *qc.RatingMin)
}

func TestMetricsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marquee.prom")

	_, err := runApp(t, "--db", filepath.Join(dir, "db"), "--log-level", "error", "--metrics-file", path, "index-info")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "marquee_vector_index_size")
}
