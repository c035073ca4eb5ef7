// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package backup

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

func newManager(t *testing.T) (*Manager, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "data/PROCESOS.xlsx", []byte("xlsx-bytes"), 0o644))
	m := New(fsys, "backups")
	m.now = func() time.Time { return now }
	return m, fsys
}

func TestName(t *testing.T) {
	assert.Equal(t, "PROCESOS_backup_20240401_100000.xlsx", Name("data/PROCESOS.xlsx", now))
}

func TestBackupInput(t *testing.T) {
	m, fsys := newManager(t)

	dst, err := m.BackupInput("data/PROCESOS.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "backups/PROCESOS_backup_20240401_100000.xlsx", dst)

	got, err := afero.ReadFile(fsys, dst)
	require.NoError(t, err)
	assert.Equal(t, "xlsx-bytes", string(got))
}

func TestBackupInputMissing(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.BackupInput("data/otro.xlsx")
	assert.ErrorIs(t, err, ErrSourceMissing)
}

func TestListAndPrune(t *testing.T) {
	m, fsys := newManager(t)
	require.NoError(t, fsys.MkdirAll("backups", 0o750))

	files := map[string]time.Time{
		"PROCESOS_backup_20240101_000000.xlsx": now.AddDate(0, 0, -91),
		"PROCESOS_backup_20240301_000000.xlsx": now.AddDate(0, 0, -31),
		"PROCESOS_backup_20240330_000000.xlsx": now.AddDate(0, 0, -2),
		"notes.txt":                            now.AddDate(-1, 0, 0),
	}
	for name, mt := range files {
		path := "backups/" + name
		require.NoError(t, afero.WriteFile(fsys, path, []byte("x"), 0o644))
		require.NoError(t, fsys.Chtimes(path, mt, mt))
	}

	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "PROCESOS_backup_20240330_000000.xlsx", list[0].Name)
	assert.Equal(t, "PROCESOS_backup_20240101_000000.xlsx", list[2].Name)

	removed, err := m.Prune(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	list, err = m.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	exists, err := afero.Exists(fsys, "backups/notes.txt")
	require.NoError(t, err)
	assert.True(t, exists, "non-backup files are left alone")
}

func TestListMissingDir(t *testing.T) {
	m := New(afero.NewMemMapFs(), "nowhere")
	list, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPruneLogs(t *testing.T) {
	fsys := afero.NewMemMapFs()
	old := now.AddDate(0, 0, -8)
	for name, mt := range map[string]time.Time{
		"logs/consulta_procesos_20240320.log": old,
		"logs/consulta_procesos_20240331.log": now.AddDate(0, 0, -1),
		"logs/keep.txt":                       old,
	} {
		require.NoError(t, afero.WriteFile(fsys, name, []byte("x"), 0o644))
		require.NoError(t, fsys.Chtimes(name, mt, mt))
	}

	removed, err := PruneLogs(fsys, "logs", now, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
