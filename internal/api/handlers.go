package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/models"
	"github.com/jonesrussell/stock-publisher/internal/profiles"
	"github.com/jonesrussell/stock-publisher/internal/publish"
	"github.com/jonesrussell/stock-publisher/internal/runlock"
	"github.com/jonesrussell/stock-publisher/internal/tickers"
)

const userIDHeader = "X-User-ID"

// defaultUserID scopes requests that carry no user header. File-backed
// deployments are single tenant and always land here.
const defaultUserID = "local"

type runProfileRequest struct {
	ProfileID     string         `json:"profile_id" binding:"required"`
	Posts         int            `json:"posts"`
	CustomTickers []string       `json:"custom_tickers"`
	Upload        *uploadRequest `json:"upload"`
}

type uploadRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type runRequest struct {
	Profiles []runProfileRequest `json:"profiles" binding:"required,min=1"`
}

func userID(c *gin.Context) string {
	if id := c.GetHeader(userIDHeader); id != "" {
		return id
	}
	return defaultUserID
}

// triggerRun starts a publishing run for the requested profiles and returns
// its summary. Concurrent runs are rejected with 409.
func (r *Router) triggerRun(c *gin.Context) {
	var body runRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run request: " + err.Error()})
		return
	}

	user := userID(c)
	req := publish.Request{
		UserID:          user,
		PostsPerProfile: make(map[string]int, len(body.Profiles)),
		CustomTickers:   make(map[string][]string),
		Uploads:         make(map[string]tickers.UploadedFile),
	}

	for _, rp := range body.Profiles {
		profile, err := r.profiles.Get(c.Request.Context(), user, rp.ProfileID)
		if errors.Is(err, profiles.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown profile: " + rp.ProfileID})
			return
		}
		if err != nil {
			r.logger.Error("could not load profile", logger.String("profile_id", rp.ProfileID), logger.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
			return
		}

		req.Profiles = append(req.Profiles, *profile)
		req.PostsPerProfile[rp.ProfileID] = rp.Posts
		if len(rp.CustomTickers) > 0 {
			req.CustomTickers[rp.ProfileID] = rp.CustomTickers
		}
		if rp.Upload != nil {
			req.Uploads[rp.ProfileID] = tickers.UploadedFile{
				Filename: rp.Upload.Filename,
				Content:  []byte(rp.Upload.Content),
			}
		}
	}

	// Without Redis there is no lock; single-process deployments accept the
	// overlap risk.
	if r.lock != nil {
		lockToken := uuid.NewString()
		if err := r.lock.Acquire(c.Request.Context(), lockToken); err != nil {
			if errors.Is(err, runlock.ErrHeld) {
				c.JSON(http.StatusConflict, gin.H{"error": "a publishing run is already in progress"})
				return
			}
			r.logger.Error("could not acquire run lock", logger.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run lock unavailable"})
			return
		}
		defer r.lock.Release(c.Request.Context(), lockToken)
	}

	summary := r.runner.Run(c.Request.Context(), req)
	c.JSON(http.StatusOK, summary)
}

// getState returns the current publisher state document. Read-only: a
// targeted load with no profile ids never prunes or mutates anything
// persisted.
func (r *Router) getState(c *gin.Context) {
	st := r.stateStore.Load(c.Request.Context(), nil, true)
	c.JSON(http.StatusOK, st)
}

func (r *Router) listProfiles(c *gin.Context) {
	list, err := r.profiles.List(c.Request.Context(), userID(c))
	if err != nil {
		r.logger.Error("could not list profiles", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list profiles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": list, "count": len(list)})
}

func (r *Router) getProfile(c *gin.Context) {
	profile, err := r.profiles.Get(c.Request.Context(), userID(c), c.Param("id"))
	if errors.Is(err, profiles.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		r.logger.Error("could not load profile", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// putProfile creates or replaces a profile. On the PUT route the path id
// wins over any id in the body.
func (r *Router) putProfile(c *gin.Context) {
	var profile models.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile: " + err.Error()})
		return
	}
	if id := c.Param("id"); id != "" {
		profile.ID = id
	}

	if err := r.profiles.Put(c.Request.Context(), userID(c), profile); err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (r *Router) deleteProfile(c *gin.Context) {
	err := r.profiles.Delete(c.Request.Context(), userID(c), c.Param("id"))
	if errors.Is(err, profiles.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		r.logger.Error("could not delete profile", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete profile"})
		return
	}
	c.Status(http.StatusNoContent)
}
