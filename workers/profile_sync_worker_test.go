package workers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"study-progress-system/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sync.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func TestSyncOnceUpsertsProfiles(t *testing.T) {
	db := newTestDB(t)
	created := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.User{ID: "u1", Username: "old", StudyGoalHours: 4}).Error)

	var gotSince, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/public/profiles", r.URL.Path)
		gotSince = r.URL.Query().Get("since")
		gotToken = r.Header.Get("X-Service-Token")
		_ = json.NewEncoder(w).Encode(profileChangesResponse{Users: []RemoteProfile{
			{ID: "u1", Username: "ana", Email: "ana@example.com", CreatedAt: created, UpdatedAt: updated},
			{ID: "u2", Username: "ben", CreatedAt: created, UpdatedAt: updated},
			{Username: "no-id"},
		}})
	}))
	defer srv.Close()

	w := NewProfileSyncWorker(db, srv.URL, "tok")
	n, err := w.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "tok", gotToken)
	assert.NotEmpty(t, gotSince)

	var u1 models.User
	require.NoError(t, db.First(&u1, "id = ?", "u1").Error)
	assert.Equal(t, "ana", u1.Username)
	assert.Equal(t, "ana@example.com", u1.Email)
	assert.Equal(t, 4.0, u1.StudyGoalHours)
	assert.True(t, created.Equal(u1.CreatedAt.UTC()))

	var u2 models.User
	require.NoError(t, db.First(&u2, "id = ?", "u2").Error)
	assert.Equal(t, models.DefaultStudyGoalHours, u2.StudyGoalHours)

	assert.True(t, updated.Equal(w.lastSyncTime().UTC()))
}

func TestSyncOnceReportsServiceErrors(t *testing.T) {
	db := newTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewProfileSyncWorker(db, srv.URL, "bad").SyncOnce(context.Background())
	assert.ErrorContains(t, err, "401")

	_, err = NewProfileSyncWorker(db, "://bad", "tok").SyncOnce(context.Background())
	assert.Error(t, err)
}
