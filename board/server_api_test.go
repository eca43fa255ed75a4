// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gin-gonic/gin"
	"github.com/nearwork/nearwork/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupServerTest initializes a Gin router and a board.Server over an
// in-memory database and a stubbed geocoder.
func setupServerTest(t *testing.T, geocoder Geocoder) (*gin.Engine, *Server, *sql.DB) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.Default()

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)

	jobs := NewJobRepository(db)
	require.NoError(t, jobs.CreateSchema())

	accounts := NewAccountRepository(db)
	require.NoError(t, accounts.CreateSchema())

	apps := NewApplicationRepository(db)
	require.NoError(t, apps.CreateSchema())

	saved := NewSavedJobRepository(db)
	require.NoError(t, saved.CreateSchema())

	cfg := &Config{
		Addr:                "localhost:0",
		UploadDir:           t.TempDir(),
		ServiceAreaCenter:   lagosCenter,
		ServiceAreaRadiusKm: 50,
	}

	core := NewCore(geocoder, NewServiceArea(cfg.ServiceAreaCenter, cfg.ServiceAreaRadiusKm), jobs)
	server := NewServer(cfg, core, jobs, accounts, apps, saved)
	server.registerRoutes(router)

	return router, server, db
}

func createTestAccount(t *testing.T, s *Server, email string, role Role, point *spatial.Point) int {
	t.Helper()

	account := &Account{
		Email:       email,
		Role:        role,
		FullName:    "Test " + email,
		Point:       point,
		CompanyName: "Test Co",
	}

	id, err := s.accounts.CreateAccount(account)
	require.NoError(t, err)

	return id
}

func doJSON(router *gin.Engine, method, path string, accountID int, payload any) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")

	if accountID != 0 {
		req.Header.Set("X-Account-ID", strconv.Itoa(accountID))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestCreateAccountAPI(t *testing.T) {
	router, _, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	w := doJSON(router, http.MethodPost, "/api/accounts", 0, CreateAccountRequest{
		Email:    "adaeze@example.com",
		Role:     RoleJobSeeker,
		FullName: "Adaeze Okafor",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		ID      int      `json:"id"`
		Account *Account `json:"account"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotZero(t, response.ID)
	assert.Nil(t, response.Account.Point)

	// Same email again
	w = doJSON(router, http.MethodPost, "/api/accounts", 0, CreateAccountRequest{
		Email:    "adaeze@example.com",
		Role:     RoleJobSeeker,
		FullName: "Someone Else",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown role
	w = doJSON(router, http.MethodPost, "/api/accounts", 0, map[string]string{
		"email":     "x@example.com",
		"role":      "admin",
		"full_name": "X",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAccountWithAddressAPI(t *testing.T) {
	router, _, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	w := doJSON(router, http.MethodPost, "/api/accounts", 0, CreateAccountRequest{
		Email:    "adaeze@example.com",
		Role:     RoleJobSeeker,
		FullName: "Adaeze Okafor",
		Address:  "14 Herbert Macaulay Way",
		City:     "Yaba",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Account *Account `json:"account"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Account.Point)
	assert.InDelta(t, 6.5276, response.Account.Point.Lat, 0.0001)
}

func TestCreateAccountOutsideAreaAPI(t *testing.T) {
	router, _, db := setupServerTest(t, &stubGeocoder{result: outsideResult()})
	defer db.Close()

	w := doJSON(router, http.MethodPost, "/api/accounts", 0, CreateAccountRequest{
		Email:    "far@example.com",
		Role:     RoleJobSeeker,
		FullName: "Too Far",
		Address:  "Somewhere in Ibadan",
		City:     "Ibadan",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGeocodeAPI(t *testing.T) {
	router, _, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	w := doJSON(router, http.MethodPost, "/api/geocode", 0, GeocodeRequest{
		Address: "23 Ladipo Street",
		City:    "Mushin",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var response GeocodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.InDelta(t, 6.5276, response.Point.Lat, 0.0001)
	assert.Equal(t, "high", response.Confidence)
	assert.Equal(t, "google_maps", response.Provider)
}

func TestGeocodeNoMatchAPI(t *testing.T) {
	router, _, db := setupServerTest(t, &stubGeocoder{
		err: &GeocodingError{Type: ErrorTypeNoMatch, Message: "no results"},
	})
	defer db.Close()

	w := doJSON(router, http.MethodPost, "/api/geocode", 0, GeocodeRequest{
		Address: "gibberish",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateJobAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	employerID := createTestAccount(t, server, "employer@example.com", RoleEmployer, nil)
	seekerID := createTestAccount(t, server, "seeker@example.com", RoleJobSeeker, nil)

	payload := CreateJobRequest{
		Title:          "Experienced Auto Mechanic",
		Description:    "Diagnose and repair passenger vehicles.",
		Category:       "skilled_trades",
		EmploymentType: "full_time",
		SalaryMin:      90000,
		SalaryMax:      140000,
		StreetAddress:  "23 Ladipo Street",
		City:           "Mushin",
	}

	// No account header
	w := doJSON(router, http.MethodPost, "/api/jobs", 0, payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Seekers cannot post jobs
	w = doJSON(router, http.MethodPost, "/api/jobs", seekerID, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Employers can
	w = doJSON(router, http.MethodPost, "/api/jobs", employerID, payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		ID      int         `json:"id"`
		Posting *JobPosting `json:"posting"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotZero(t, response.ID)
	assert.Equal(t, employerID, response.Posting.EmployerID)
	assert.InDelta(t, 6.5276, response.Posting.Point.Lat, 0.0001)
	assert.Equal(t, StatusActive, response.Posting.Status)

	// Fetch it back
	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/jobs/%d", response.ID), 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/jobs/99999", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateJobOutsideAreaAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubGeocoder{result: outsideResult()})
	defer db.Close()

	employerID := createTestAccount(t, server, "employer@example.com", RoleEmployer, nil)

	w := doJSON(router, http.MethodPost, "/api/jobs", employerID, CreateJobRequest{
		Title:         "Too far away",
		Description:   "This posting is outside the service area.",
		Category:      "other",
		StreetAddress: "Somewhere in Ibadan",
		City:          "Ibadan",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSearchJobsAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	require.NoError(t, server.jobs.BulkInsertPostings([]*JobPosting{
		testPosting("Yaba Mechanic", StatusActive, spatial.Point{Lat: 6.5095, Lng: 3.3711}),
		testPosting("Ibadan Driver", StatusActive, spatial.Point{Lat: 7.3775, Lng: 3.947}),
		testPosting("Paused Yaba", StatusPaused, spatial.Point{Lat: 6.5095, Lng: 3.3711}),
	}))

	w := doJSON(router, http.MethodGet, "/api/jobs/search?lat=6.5244&lng=3.3792&radius_km=25", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Results []SearchHit `json:"results"`
		Total   int         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Total)
	require.Len(t, response.Results, 1)
	assert.Equal(t, "Yaba Mechanic", response.Results[0].Posting.Title)
	assert.InDelta(t, 1.9, response.Results[0].DistanceKm, 0.5)

	// Missing coordinates
	w = doJSON(router, http.MethodGet, "/api/jobs/search?radius_km=25", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Non-positive radius
	w = doJSON(router, http.MethodGet, "/api/jobs/search?lat=6.5244&lng=3.3792&radius_km=0", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateJobStatusAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	ownerID := createTestAccount(t, server, "owner@example.com", RoleEmployer, nil)
	otherID := createTestAccount(t, server, "other@example.com", RoleEmployer, nil)

	posting := testPosting("Flip me", StatusActive, spatial.Point{Lat: 6.5276, Lng: 3.3465})
	posting.EmployerID = ownerID

	jobID, err := server.jobs.CreatePosting(posting)
	require.NoError(t, err)

	// Only the owner may flip the status
	w := doJSON(router, http.MethodPatch, fmt.Sprintf("/api/jobs/%d/status", jobID), otherID,
		UpdateStatusRequest{Status: StatusPaused})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodPatch, fmt.Sprintf("/api/jobs/%d/status", jobID), ownerID,
		UpdateStatusRequest{Status: StatusPaused})
	assert.Equal(t, http.StatusOK, w.Code)

	updated, err := server.jobs.GetPosting(jobID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, updated.Status)

	// Bogus status
	w = doJSON(router, http.MethodPatch, fmt.Sprintf("/api/jobs/%d/status", jobID), ownerID,
		map[string]string{"status": "draft"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOwnJobsAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	employerID := createTestAccount(t, server, "employer@example.com", RoleEmployer, nil)

	posting := testPosting("Mine", StatusActive, spatial.Point{Lat: 6.5276, Lng: 3.3465})
	posting.EmployerID = employerID
	_, err := server.jobs.CreatePosting(posting)
	require.NoError(t, err)

	w := doJSON(router, http.MethodGet, "/api/jobs/mine", employerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var postings []*JobPosting
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &postings))
	assert.Len(t, postings, 1)
}

func TestApplyFlowAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	employerID := createTestAccount(t, server, "employer@example.com", RoleEmployer, nil)
	seekerID := createTestAccount(t, server, "seeker@example.com", RoleJobSeeker, nil)

	posting := testPosting("Open role", StatusActive, spatial.Point{Lat: 6.5276, Lng: 3.3465})
	posting.EmployerID = employerID
	jobID, err := server.jobs.CreatePosting(posting)
	require.NoError(t, err)

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/jobs/%d/apply", jobID), seekerID,
		ApplyRequest{CoverLetter: "I can start on Monday."})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Applying twice conflicts
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/jobs/%d/apply", jobID), seekerID,
		ApplyRequest{})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Employers cannot apply
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/jobs/%d/apply", jobID), employerID,
		ApplyRequest{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The seeker sees their application; the employer sees it too
	w = doJSON(router, http.MethodGet, "/api/applications", seekerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var apps []*Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apps))
	assert.Len(t, apps, 1)

	w = doJSON(router, http.MethodGet, "/api/applications", employerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	apps = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apps))
	assert.Len(t, apps, 1)
}

func TestApplyToInactivePostingAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	employerID := createTestAccount(t, server, "employer@example.com", RoleEmployer, nil)
	seekerID := createTestAccount(t, server, "seeker@example.com", RoleJobSeeker, nil)

	posting := testPosting("Paused role", StatusPaused, spatial.Point{Lat: 6.5276, Lng: 3.3465})
	posting.EmployerID = employerID
	jobID, err := server.jobs.CreatePosting(posting)
	require.NoError(t, err)

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/jobs/%d/apply", jobID), seekerID, ApplyRequest{})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSavedJobsAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	// Seeker registered in Yaba; the posting is in Mushin (~3.3 km away)
	seekerID := createTestAccount(t, server, "seeker@example.com", RoleJobSeeker,
		&spatial.Point{Lat: 6.5095, Lng: 3.3711})

	jobID, err := server.jobs.CreatePosting(
		testPosting("Mechanic", StatusActive, spatial.Point{Lat: 6.5276, Lng: 3.3465}))
	require.NoError(t, err)

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/jobs/%d/save", jobID), seekerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Saving an unknown posting fails
	w = doJSON(router, http.MethodPost, "/api/jobs/99999/save", seekerID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/api/saved", seekerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var items []SavedJobItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	require.NotNil(t, items[0].DistanceKm)
	assert.InDelta(t, 3.3, *items[0].DistanceKm, 0.8)

	w = doJSON(router, http.MethodDelete, fmt.Sprintf("/api/jobs/%d/save", jobID), seekerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Removing an absent bookmark is a 404
	w = doJSON(router, http.MethodDelete, fmt.Sprintf("/api/jobs/%d/save", jobID), seekerID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func uploadResume(router *gin.Engine, accountID int, filename string, content []byte) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("resume", filename)
	_, _ = part.Write(content)
	_ = writer.Close()

	req, _ := http.NewRequest(http.MethodPost, "/api/resumes", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Account-ID", strconv.Itoa(accountID))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestResumeUploadAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	seekerID := createTestAccount(t, server, "seeker@example.com", RoleJobSeeker, nil)

	w := uploadResume(router, seekerID, "adaeze-cv.pdf", []byte("%PDF-1.4 fake"))
	assert.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		ID     int     `json:"id"`
		Resume *Resume `json:"resume"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "adaeze-cv.pdf", response.Resume.OriginalFilename)

	// Only PDFs are accepted
	w = uploadResume(router, seekerID, "cv.docx", []byte("not a pdf"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/resumes", seekerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resumes []*Resume
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resumes))
	assert.Len(t, resumes, 1)
}

func TestStatsAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	point := spatial.Point{Lat: 6.5276, Lng: 3.3465}
	require.NoError(t, server.jobs.BulkInsertPostings([]*JobPosting{
		testPosting("One", StatusActive, point),
		testPosting("Two", StatusActive, point),
		testPosting("Three", StatusPaused, point),
	}))

	w := doJSON(router, http.MethodGet, "/api/stats", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalPostings)
	assert.Equal(t, 2, stats.PostingsByStatus["active"])
	assert.InDelta(t, 66.67, stats.ActivePercentage, 0.01)
	assert.Equal(t, 50.0, stats.ServiceAreaRadius)
}

func TestDensityAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubGeocoder{result: insideResult()})
	defer db.Close()

	point := spatial.Point{Lat: 6.5276, Lng: 3.3465}
	require.NoError(t, server.jobs.BulkInsertPostings([]*JobPosting{
		testPosting("One", StatusActive, point),
		testPosting("Two", StatusActive, point),
	}))

	w := doJSON(router, http.MethodGet, "/api/jobs/density?res=6", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Res   int `json:"res"`
		Cells []struct {
			Cell  string `json:"cell"`
			Count int    `json:"count"`
		} `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 6, response.Res)
	require.Len(t, response.Cells, 1)
	assert.Equal(t, 2, response.Cells[0].Count)

	// Out-of-range resolution
	w = doJSON(router, http.MethodGet, "/api/jobs/density?res=2", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Cluster mode
	w = doJSON(router, http.MethodGet, "/api/jobs/density?mode=cluster&threshold_km=0.05", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var clusters []*PostingCluster
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &clusters))
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Members, 2)
}
