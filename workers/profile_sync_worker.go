package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"study-progress-system/models"
	"study-progress-system/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteProfile is one entry of the profile service's change feed
type RemoteProfile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type profileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// ProfileSyncWorker mirrors usernames and emails from the profile service into
// the local users table so leaderboards can show names
type ProfileSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB, baseURL, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		interval:     time.Minute,
		baseURL:      baseURL,
		endpointPath: "/api/v1/public/profiles",
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	slog.Info("starting profile sync worker", "url", w.baseURL, "interval", w.interval)
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	if _, err := w.SyncOnce(ctx); err != nil {
		slog.Warn("initial profile sync failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx); err != nil {
				slog.Error("profile sync failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("profile sync worker stopped")
			return
		}
	}
}

// lastSyncTime is the newest updated_at already mirrored
func (w *ProfileSyncWorker) lastSyncTime() time.Time {
	var u models.User
	err := w.db.Unscoped().Select("updated_at").Order("updated_at DESC").Limit(1).Take(&u).Error
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return u.UpdatedAt
}

// SyncOnce pulls changes since the last mirrored update and upserts them.
// Returns the number of users written.
func (w *ProfileSyncWorker) SyncOnce(ctx context.Context) (int, error) {
	since := w.lastSyncTime().UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid profile service URL %q: %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(w.endpointPath)
	q := endpoint.Query()
	q.Set("since", since)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("profile service request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("profile service returned %d: %s", resp.StatusCode, string(body))
	}

	var changes profileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&changes); err != nil {
		return 0, fmt.Errorf("decode profile changes: %w", err)
	}
	if len(changes.Users) == 0 {
		slog.Debug("no profile changes", "since", since)
		return 0, nil
	}

	upserted := 0
	for _, p := range changes.Users {
		if p.ID == "" {
			continue
		}
		local := models.User{
			ID:       p.ID,
			Username: p.Username,
			Email:    p.Email,
			Timestamps: models.Timestamps{
				CreatedAt: p.CreatedAt,
				UpdatedAt: p.UpdatedAt,
			},
		}
		// study_goal_hours is local and never overwritten
		if err := w.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "email", "created_at", "updated_at"}),
		}).Create(&local).Error; err != nil {
			slog.Warn("profile upsert failed", "user_id", p.ID, "error", err)
			continue
		}
		upserted++
	}
	slog.Info("profiles synced", "received", len(changes.Users), "upserted", upserted)
	return upserted, nil
}
