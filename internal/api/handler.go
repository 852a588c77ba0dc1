package api

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/devprofile-api/internal/collector"
	"github.com/kurihiro0119/devprofile-api/internal/domain"
	apperrors "github.com/kurihiro0119/devprofile-api/internal/errors"
	"github.com/kurihiro0119/devprofile-api/internal/ingest"
	"github.com/kurihiro0119/devprofile-api/internal/repourl"
	"github.com/kurihiro0119/devprofile-api/internal/social"
)

const (
	serviceName    = "devprofile-api"
	serviceVersion = "1.0.0"
)

// Handler handles API requests
type Handler struct {
	repos  collector.Collector
	ingest ingest.Service
	social social.Service
}

// NewHandler creates a new API handler
func NewHandler(repos collector.Collector, ingestSvc ingest.Service, socialSvc social.Service) *Handler {
	return &Handler{
		repos:  repos,
		ingest: ingestSvc,
		social: socialSvc,
	}
}

// Root describes the available endpoints
// GET /
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "Welcome to " + serviceName,
		"version":     serviceVersion,
		"description": "API for GitHub repository analysis and social profile scraping",
		"endpoints": gin.H{
			"GET /repos/{username}":         "Get all GitHub repositories for a user",
			"GET /repos?profile_url=":       "Get all GitHub repositories for a profile URL",
			"GET /gitingest/{owner}/{repo}": "Get the ingestion digest of one repository",
			"GET /gitingest?url=":           "Get the ingestion digest of a repository URL",
			"POST /gitingest":               "Get ingestion digests for selected repositories",
			"POST /linkedin-profile":        "Get LinkedIn profile details",
			"POST /linkedin-posts":          "Get LinkedIn posts from a profile",
			"POST /twitter-posts":           "Get posts from a Twitter/X account, reshares filtered",
			"GET /health":                   "Health check endpoint",
			"GET /metrics":                  "Prometheus metrics",
		},
		"webhooks": gin.H{
			social.LinkedInProfile: "Agent webhook for LinkedIn profile scraping",
			social.LinkedInPosts:   "Agent webhook for LinkedIn posts scraping",
			social.TwitterPosts:    "Agent webhook for Twitter/X posts scraping",
		},
	})
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"service":      serviceName,
		"github_quota": h.repos.Quota(),
	})
}

// GetUserRepositories returns every repository of a user
// GET /repos/:username
func (h *Handler) GetUserRepositories(c *gin.Context) {
	owner, err := repourl.ParseOwner(c.Param("username"))
	if err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}
	h.listRepositories(c, owner)
}

// GetProfileRepositories returns every repository of the account named by a profile URL
// GET /repos?profile_url=
func (h *Handler) GetProfileRepositories(c *gin.Context) {
	profileURL := c.Query("profile_url")
	if profileURL == "" {
		respondError(c, apperrors.NewBadRequestError("profile_url is required"))
		return
	}
	owner, err := repourl.ParseOwner(profileURL)
	if err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}
	h.listRepositories(c, owner)
}

func (h *Handler) listRepositories(c *gin.Context, owner string) {
	opts, err := parseListOptions(c)
	if err != nil {
		respondError(c, err)
		return
	}

	repos, err := h.repos.ListRepositories(c.Request.Context(), owner, opts, tokenFromHeader(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if repos == nil {
		repos = []*domain.Repository{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": repos,
	})
}

// GetRepositoryDigest ingests one repository
// GET /gitingest/:owner/:repo
func (h *Handler) GetRepositoryDigest(c *gin.Context) {
	ref, err := repourl.ParseRef(c.Param("owner") + "/" + c.Param("repo"))
	if err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}
	h.ingestOne(c, ref)
}

// GetRepositoryDigestByURL ingests the repository named by a URL
// GET /gitingest?url=
func (h *Handler) GetRepositoryDigestByURL(c *gin.Context) {
	raw := c.Query("url")
	if raw == "" {
		respondError(c, apperrors.NewBadRequestError("url is required"))
		return
	}
	ref, err := repourl.ParseRef(raw)
	if err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}
	h.ingestOne(c, ref)
}

func (h *Handler) ingestOne(c *gin.Context, ref domain.RepoRef) {
	includeContent, err := parseBoolQuery(c, "include_content", false)
	if err != nil {
		respondError(c, err)
		return
	}

	result := h.ingest.IngestRepo(c.Request.Context(), ref, tokenFromHeader(c), includeContent)
	if !result.Success {
		respondError(c, apperrors.NewInternalError(*result.Error, nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result,
	})
}

// BatchRequest is the body of a batch ingestion
type BatchRequest struct {
	Repositories []string `json:"repositories"`
}

// GetRepositoryDigests ingests several repositories in order
// POST /gitingest
func (h *Handler) GetRepositoryDigests(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid request body: "+err.Error()))
		return
	}
	includeContent, err := parseBoolQuery(c, "include_content", false)
	if err != nil {
		respondError(c, err)
		return
	}

	batch, err := h.ingest.IngestBatch(c.Request.Context(), req.Repositories, tokenFromHeader(c), includeContent)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": batch,
	})
}

// ScrapeRequest is the body of the scraping endpoints
type ScrapeRequest struct {
	UserInput string `json:"user_input" binding:"required"`
}

// GetLinkedInProfile fetches profile details through the profile agent
// POST /linkedin-profile
func (h *Handler) GetLinkedInProfile(c *gin.Context) {
	input, maxWait, ok := parseScrapeRequest(c)
	if !ok {
		return
	}

	res, err := h.social.FetchProfile(c.Request.Context(), input, maxWait)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"success": true,
			"profile": res.Data,
			"run_id":  res.RunID,
		},
	})
}

// GetLinkedInPosts fetches posts through the posts agent
// POST /linkedin-posts
func (h *Handler) GetLinkedInPosts(c *gin.Context) {
	input, maxWait, ok := parseScrapeRequest(c)
	if !ok {
		return
	}

	res, err := h.social.FetchPosts(c.Request.Context(), input, maxWait)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"success": true,
			"posts":   res.Data,
			"run_id":  res.RunID,
		},
	})
}

// GetTwitterPosts fetches microblog posts, dropping reshares unless
// include_retweets=true
// POST /twitter-posts
func (h *Handler) GetTwitterPosts(c *gin.Context) {
	input, maxWait, ok := parseScrapeRequest(c)
	if !ok {
		return
	}
	includeRetweets, err := parseBoolQuery(c, "include_retweets", false)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.social.FetchTweets(c.Request.Context(), input, maxWait, includeRetweets)
	if err != nil {
		respondError(c, err)
		return
	}

	data := gin.H{
		"success": true,
		"tweets":  res.Data,
		"run_id":  res.RunID,
	}
	if res.Filter != nil {
		data["stats"] = gin.H{
			"total_fetched":     res.Filter.Total,
			"original_count":    res.Filter.KeptCount,
			"retweets_filtered": res.Filter.FilteredCount,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": data,
	})
}

// parseScrapeRequest binds the body and max_wait. It writes the error response itself.
func parseScrapeRequest(c *gin.Context) (string, time.Duration, bool) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError("user_input is required"))
		return "", 0, false
	}

	seconds, err := parseIntQuery(c, "max_wait", int(social.DefaultMaxWait/time.Second))
	if err != nil {
		respondError(c, err)
		return "", 0, false
	}
	return req.UserInput, time.Duration(seconds) * time.Second, true
}

// parseListOptions reads repo_type, sort and per_page
func parseListOptions(c *gin.Context) (domain.ListOptions, error) {
	opts := domain.DefaultListOptions()
	opts.Type = c.DefaultQuery("repo_type", opts.Type)
	opts.Sort = c.DefaultQuery("sort", opts.Sort)

	if !slices.Contains(domain.RepoTypes, opts.Type) {
		return opts, apperrors.NewBadRequestError("repo_type must be one of " + strings.Join(domain.RepoTypes, ", "))
	}
	if !slices.Contains(domain.RepoSorts, opts.Sort) {
		return opts, apperrors.NewBadRequestError("sort must be one of " + strings.Join(domain.RepoSorts, ", "))
	}

	perPage, err := parseIntQuery(c, "per_page", opts.PerPage)
	if err != nil {
		return opts, err
	}
	if perPage < 1 || perPage > domain.MaxPerPage {
		return opts, apperrors.NewBadRequestError("per_page must be between 1 and 100")
	}
	opts.PerPage = perPage
	return opts, nil
}

// parseIntQuery parses an integer query parameter with a default value
func parseIntQuery(c *gin.Context, key string, defaultValue int) (int, error) {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, apperrors.NewBadRequestError(key + " must be an integer")
	}
	return value, nil
}

func parseBoolQuery(c *gin.Context, key string, defaultValue bool) (bool, error) {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, apperrors.NewBadRequestError(key + " must be true or false")
	}
	return value, nil
}

// tokenFromHeader accepts "token <t>" and "Bearer <t>" Authorization values
func tokenFromHeader(c *gin.Context) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if !found {
		return ""
	}
	if strings.EqualFold(scheme, "token") || strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrCodeForbidden:
			status = http.StatusForbidden
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		case apperrors.ErrCodeTimeout:
			status = http.StatusRequestTimeout
		case apperrors.ErrCodeUnavailable:
			status = http.StatusServiceUnavailable
		case apperrors.ErrCodeUpstream:
			status = http.StatusBadGateway
			if appErr.Status >= 400 {
				status = appErr.Status
			}
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrCodeInternal,
			"message": err.Error(),
		},
	})
}
