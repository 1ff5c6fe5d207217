package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "prefs.db")
	db, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	return db, dbPath
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	db, _ := setupSQLite(t)
	defer db.Close()

	require.NoError(t, db.Save("countdown", []byte(`3`)))
	require.NoError(t, db.Save("countdown", []byte(`5`)))
	require.NoError(t, db.SaveAll(map[string][]byte{
		"encoder":     []byte(`"h265"`),
		"videoFormat": []byte(`"mov"`),
	}))

	all, err := db.LoadAll()
	require.NoError(t, err)

	assert.Equal(t, map[string][]byte{
		"countdown":   []byte(`5`),
		"encoder":     []byte(`"h265"`),
		"videoFormat": []byte(`"mov"`),
	}, all)
}

func TestSQLiteStore_EmptyDatabase(t *testing.T) {
	db, _ := setupSQLite(t)
	defer db.Close()

	all, err := db.LoadAll()

	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_SurvivesRestart(t *testing.T) {
	db, dbPath := setupSQLite(t)
	store := NewStore(db, Defaults{SaveDirectory: "/tmp/recordings"}, testLogger())
	require.NoError(t, store.Load())

	color := Color{R: 0.25, G: 0.5, B: 0.75, A: 0.9}
	require.NoError(t, store.Set(KeyUserColor, color))
	require.NoError(t, store.Set(KeyAudioQuality, AudioQualityExtreme))
	require.NoError(t, store.Set(KeyAudioFormat, AudioFormatFLAC))
	require.NoError(t, store.Set(KeyWithAlpha, true))
	require.NoError(t, store.Set(KeyExcludedApps, []string{"com.apple.Safari", "com.tinyspeck.slackmacgap"}))
	require.NoError(t, store.Set(KeySaveDirectory, "/Volumes/Capture"))
	require.NoError(t, store.Close())

	db2, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	reopened := NewStore(db2, Defaults{SaveDirectory: "/tmp/recordings"}, testLogger())
	require.NoError(t, reopened.Load())
	defer reopened.Close()

	assert.True(t, color.Equal(reopened.Color(KeyUserColor)))
	assert.Equal(t, AudioFormatFLAC, reopened.AudioFormat())
	assert.Equal(t, AudioQualityLossless, reopened.AudioQuality())
	assert.Equal(t, EncoderH265, reopened.Encoder())
	assert.Equal(t, VideoFormatMOV, reopened.VideoFormat())
	assert.Equal(t, []string{"com.apple.Safari", "com.tinyspeck.slackmacgap"}, reopened.Strings(KeyExcludedApps))
	assert.Equal(t, "/Volumes/Capture", reopened.SaveDirectory())

	// The remembered lossy quality survives too
	require.NoError(t, reopened.Set(KeyAudioFormat, AudioFormatMP3))
	assert.Equal(t, AudioQualityExtreme, reopened.AudioQuality())
}

func TestStore_UserColorUsesBinaryArchive(t *testing.T) {
	db, _ := setupSQLite(t)
	defer db.Close()
	store := NewStore(db, Defaults{}, testLogger())

	require.NoError(t, store.Set(KeyUserColor, Color{R: 1, G: 0, B: 0, A: 1}))

	all, err := db.LoadAll()
	require.NoError(t, err)
	raw := all[string(KeyUserColor)]
	require.Len(t, raw, colorArchiveLen)
	assert.Equal(t, colorArchiveTag, raw[0])
}
