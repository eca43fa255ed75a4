// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nearwork/nearwork/spatial"
)

const maxResumeBytes = 16 << 20 // 16 MiB

type Server struct {
	cfg      *Config
	core     *Core
	jobs     JobRepository
	accounts AccountRepository
	apps     ApplicationRepository
	saved    SavedJobRepository
}

// NewServer wires the HTTP layer. All collaborators are constructed by the
// caller; the server owns no global state.
func NewServer(
	cfg *Config,
	core *Core,
	jobs JobRepository,
	accounts AccountRepository,
	apps ApplicationRepository,
	saved SavedJobRepository,
) *Server {
	return &Server{
		cfg:      cfg,
		core:     core,
		jobs:     jobs,
		accounts: accounts,
		apps:     apps,
		saved:    saved,
	}
}

func (s *Server) Run() error {
	r := gin.Default()
	s.registerRoutes(r)

	return r.Run(s.cfg.Addr)
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.POST("/api/accounts", s.createAccount)
	r.POST("/api/geocode", s.geocodeAddress)

	r.GET("/api/jobs/search", s.searchJobs)
	r.GET("/api/jobs/density", s.jobDensity)
	r.POST("/api/jobs", s.createJob)
	r.GET("/api/jobs/mine", s.listOwnJobs)
	r.GET("/api/jobs/:id", s.getJob)
	r.PATCH("/api/jobs/:id/status", s.updateJobStatus)

	r.POST("/api/jobs/:id/apply", s.applyToJob)
	r.GET("/api/applications", s.listApplications)

	r.POST("/api/jobs/:id/save", s.saveJob)
	r.DELETE("/api/jobs/:id/save", s.unsaveJob)
	r.GET("/api/saved", s.listSavedJobs)

	r.POST("/api/resumes", s.uploadResume)
	r.GET("/api/resumes", s.listResumes)
	r.GET("/api/resumes/:id/file", s.downloadResume)

	r.GET("/api/stats", s.getStats)
}

// errorStatus maps domain errors to HTTP status codes. Geocoding failures
// and service-area rejections surface to the client unchanged in the error
// message; nothing is retried server-side.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, spatial.ErrInvalidCoordinate),
		errors.Is(err, ErrNonPositiveRadius),
		errors.Is(err, ErrDuplicateEmail):
		return http.StatusBadRequest
	case IsOutsideServiceArea(err):
		return http.StatusUnprocessableEntity
	case IsNoMatch(err):
		return http.StatusNotFound
	case IsInvalidToken(err), IsProviderUnavailable(err), IsRateLimitError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(ctx *gin.Context, err error) {
	ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

// actingAccount resolves the requesting account from the X-Account-ID
// header. There is no session machinery; the dashboard front-end owns
// authentication and passes the account through.
func (s *Server) actingAccount(ctx *gin.Context) (*Account, bool) {
	idStr := ctx.GetHeader("X-Account-ID")
	if idStr == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "X-Account-ID header is required"})

		return nil, false
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid X-Account-ID header"})

		return nil, false
	}

	account, err := s.accounts.GetAccount(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}

		return nil, false
	}

	return account, true
}

func (s *Server) requireRole(ctx *gin.Context, role Role) (*Account, bool) {
	account, ok := s.actingAccount(ctx)
	if !ok {
		return nil, false
	}

	if account.Role != role {
		ctx.JSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("%s role required", role)})

		return nil, false
	}

	return account, true
}

type CreateAccountRequest struct {
	Email              string `json:"email"`
	Role               Role   `json:"role"`
	FullName           string `json:"full_name"`
	Phone              string `json:"phone"`
	Address            string `json:"address"`
	City               string `json:"city"`
	ZipCode            string `json:"zip_code"`
	CompanyName        string `json:"company_name"`
	CompanyDescription string `json:"company_description"`
}

func (s *Server) createAccount(ctx *gin.Context) {
	var req CreateAccountRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	account := &Account{
		Email:              req.Email,
		Role:               req.Role,
		FullName:           req.FullName,
		Phone:              req.Phone,
		Address:            req.Address,
		City:               req.City,
		ZipCode:            req.ZipCode,
		CompanyName:        req.CompanyName,
		CompanyDescription: req.CompanyDescription,
	}

	// Registration addresses get the same geocode-then-validate treatment
	// as postings
	if strings.TrimSpace(req.Address) != "" {
		point, _, err := s.core.ValidateAndGeocode(req.Address, req.City)
		if err != nil {
			abortWithError(ctx, err)

			return
		}

		account.Point = &point
	}

	if err := validateAccount(account); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	id, err := s.accounts.CreateAccount(account)
	if err != nil {
		abortWithError(ctx, err)

		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"id": id, "account": account})
}

type GeocodeRequest struct {
	Address string `json:"address"`
	City    string `json:"city"`
}

type GeocodeResponse struct {
	Point       spatial.Point `json:"point"`
	Confidence  string        `json:"confidence"`
	Provider    string        `json:"provider"`
	DisplayName string        `json:"display_name"`
}

func (s *Server) geocodeAddress(ctx *gin.Context) {
	var req GeocodeRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	point, result, err := s.core.ValidateAndGeocode(req.Address, req.City)
	if err != nil {
		abortWithError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, GeocodeResponse{
		Point:       point,
		Confidence:  result.Confidence,
		Provider:    result.Provider,
		DisplayName: result.DisplayName,
	})
}

func (s *Server) searchJobs(ctx *gin.Context) {
	lat, err := strconv.ParseFloat(ctx.Query("lat"), 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lat query parameter is required and must be a number"})

		return
	}

	lng, err := strconv.ParseFloat(ctx.Query("lng"), 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lng query parameter is required and must be a number"})

		return
	}

	radius, err := strconv.ParseFloat(ctx.Query("radius_km"), 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "radius_km query parameter is required and must be a number"})

		return
	}

	query := SearchQuery{
		Keyword:  ctx.Query("keyword"),
		Origin:   spatial.Point{Lat: lat, Lng: lng},
		RadiusKm: radius,
	}

	hits, err := s.core.Search(query)
	if err != nil {
		abortWithError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"results": hits,
		"total":   len(hits),
	})
}

func (s *Server) jobDensity(ctx *gin.Context) {
	if ctx.Query("mode") == "cluster" {
		thresholdKm := 0.05
		if t := ctx.Query("threshold_km"); t != "" {
			v, err := strconv.ParseFloat(t, 64)
			if err != nil || v <= 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid threshold_km parameter"})

				return
			}

			thresholdKm = v
		}

		clusters, err := s.core.ClusterActivePostings(thresholdKm)
		if err != nil {
			abortWithError(ctx, err)

			return
		}

		ctx.JSON(http.StatusOK, clusters)

		return
	}

	res := 7
	if rp := ctx.Query("res"); rp != "" {
		v, err := strconv.Atoi(rp)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid res parameter"})

			return
		}

		res = v
	}

	counts, err := s.jobs.ActiveCountByH3(res)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	type cellCount struct {
		Cell  string `json:"cell"`
		Count int    `json:"count"`
	}

	cells := make([]cellCount, 0, len(counts))
	for cell, count := range counts {
		cells = append(cells, cellCount{Cell: strconv.FormatUint(uint64(cell), 16), Count: count})
	}

	ctx.JSON(http.StatusOK, gin.H{"res": res, "cells": cells})
}

type CreateJobRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	EmploymentType string  `json:"employment_type"`
	SalaryMin      float64 `json:"salary_min"`
	SalaryMax      float64 `json:"salary_max"`
	StreetAddress  string  `json:"street_address"`
	City           string  `json:"city"`
	ZipCode        string  `json:"zip_code"`
}

func (s *Server) createJob(ctx *gin.Context) {
	employer, ok := s.requireRole(ctx, RoleEmployer)
	if !ok {
		return
	}

	var req CreateJobRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	posting := &JobPosting{
		EmployerID:     employer.ID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		EmploymentType: req.EmploymentType,
		SalaryMin:      req.SalaryMin,
		SalaryMax:      req.SalaryMax,
		StreetAddress:  req.StreetAddress,
		City:           req.City,
		ZipCode:        req.ZipCode,
		Status:         StatusActive,
	}

	id, err := s.core.CreatePosting(posting)
	if err != nil {
		abortWithError(ctx, err)

		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"id": id, "posting": posting})
}

func (s *Server) getJob(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})

		return
	}

	posting, err := s.jobs.GetPosting(id)
	if err != nil {
		abortWithError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, posting)
}

type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

func (s *Server) updateJobStatus(ctx *gin.Context) {
	employer, ok := s.requireRole(ctx, RoleEmployer)
	if !ok {
		return
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})

		return
	}

	var req UpdateStatusRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if !req.Status.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid status: %s", req.Status)})

		return
	}

	posting, err := s.jobs.GetPosting(id)
	if err != nil {
		abortWithError(ctx, err)

		return
	}

	if posting.EmployerID != employer.ID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "only the owning employer can change a posting's status"})

		return
	}

	// Any status is reachable from any status; there is no transition table
	if err := s.jobs.UpdateStatus(id, req.Status); err != nil {
		abortWithError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) listOwnJobs(ctx *gin.Context) {
	employer, ok := s.requireRole(ctx, RoleEmployer)
	if !ok {
		return
	}

	postings, err := s.jobs.ListByEmployer(employer.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, postings)
}

type ApplyRequest struct {
	CoverLetter string `json:"cover_letter"`
	ResumeID    *int   `json:"resume_id"`
}

func (s *Server) applyToJob(ctx *gin.Context) {
	seeker, ok := s.requireRole(ctx, RoleJobSeeker)
	if !ok {
		return
	}

	jobID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})

		return
	}

	var req ApplyRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	posting, err := s.jobs.GetPosting(jobID)
	if err != nil {
		abortWithError(ctx, err)

		return
	}

	if posting.Status != StatusActive {
		ctx.JSON(http.StatusConflict, gin.H{"error": "posting is not accepting applications"})

		return
	}

	applied, err := s.apps.HasApplied(jobID, seeker.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if applied {
		ctx.JSON(http.StatusConflict, gin.H{"error": "already applied to this posting"})

		return
	}

	if req.ResumeID != nil {
		resume, err := s.apps.GetResume(*req.ResumeID)
		if err != nil {
			abortWithError(ctx, err)

			return
		}

		if resume.AccountID != seeker.ID {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "resume does not belong to the applicant"})

			return
		}
	}

	app := &Application{
		JobID:       jobID,
		ApplicantID: seeker.ID,
		ResumeID:    req.ResumeID,
		CoverLetter: req.CoverLetter,
	}

	id, err := s.apps.CreateApplication(app)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"id": id, "application": app})
}

func (s *Server) listApplications(ctx *gin.Context) {
	account, ok := s.actingAccount(ctx)
	if !ok {
		return
	}

	var (
		apps []*Application
		err  error
	)

	switch account.Role {
	case RoleJobSeeker:
		apps, err = s.apps.ListByApplicant(account.ID)
	case RoleEmployer:
		apps, err = s.apps.ListForEmployer(account.ID)
	default:
		ctx.JSON(http.StatusForbidden, gin.H{"error": "unknown role"})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, apps)
}

func (s *Server) saveJob(ctx *gin.Context) {
	seeker, ok := s.requireRole(ctx, RoleJobSeeker)
	if !ok {
		return
	}

	jobID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})

		return
	}

	if _, err := s.jobs.GetPosting(jobID); err != nil {
		abortWithError(ctx, err)

		return
	}

	if err := s.saved.Save(seeker.ID, jobID); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) unsaveJob(ctx *gin.Context) {
	seeker, ok := s.requireRole(ctx, RoleJobSeeker)
	if !ok {
		return
	}

	jobID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})

		return
	}

	if err := s.saved.Unsave(seeker.ID, jobID); err != nil {
		abortWithError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

type SavedJobItem struct {
	Posting    *JobPosting `json:"posting"`
	DistanceKm *float64    `json:"distance_km,omitempty"`
}

func (s *Server) listSavedJobs(ctx *gin.Context) {
	seeker, ok := s.requireRole(ctx, RoleJobSeeker)
	if !ok {
		return
	}

	postings, err := s.saved.ListPostings(seeker.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	items := make([]SavedJobItem, 0, len(postings))

	for _, p := range postings {
		item := SavedJobItem{Posting: p}

		// Distance from the seeker's registered address, when they have one
		if seeker.Point != nil {
			if d, err := seeker.Point.DistanceKm(p.Point); err == nil {
				item.DistanceKm = &d
			}
		}

		items = append(items, item)
	}

	ctx.JSON(http.StatusOK, items)
}

func (s *Server) uploadResume(ctx *gin.Context) {
	seeker, ok := s.requireRole(ctx, RoleJobSeeker)
	if !ok {
		return
	}

	file, err := ctx.FormFile("resume")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "resume file is required"})

		return
	}

	if file.Size > maxResumeBytes {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "resume exceeds the 16 MiB limit"})

		return
	}

	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "only PDF resumes are accepted"})

		return
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o750); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	stored := fmt.Sprintf("%d-%d.pdf", seeker.ID, time.Now().UnixNano())
	dst := filepath.Join(s.cfg.UploadDir, stored)

	if err := ctx.SaveUploadedFile(file, dst); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	resume := &Resume{
		AccountID:        seeker.ID,
		Filename:         stored,
		OriginalFilename: filepath.Base(file.Filename),
	}

	id, err := s.apps.CreateResume(resume)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"id": id, "resume": resume})
}

func (s *Server) listResumes(ctx *gin.Context) {
	seeker, ok := s.requireRole(ctx, RoleJobSeeker)
	if !ok {
		return
	}

	resumes, err := s.apps.ListResumes(seeker.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, resumes)
}

func (s *Server) downloadResume(ctx *gin.Context) {
	account, ok := s.actingAccount(ctx)
	if !ok {
		return
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid resume id"})

		return
	}

	resume, err := s.apps.GetResume(id)
	if err != nil {
		abortWithError(ctx, err)

		return
	}

	// Owners always may; employers may when the resume backs an application
	// to one of their postings
	if resume.AccountID != account.ID {
		allowed := false

		if account.Role == RoleEmployer {
			apps, err := s.apps.ListForEmployer(account.ID)
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

				return
			}

			for _, app := range apps {
				if app.ResumeID != nil && *app.ResumeID == resume.ID {
					allowed = true

					break
				}
			}
		}

		if !allowed {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})

			return
		}
	}

	ctx.FileAttachment(filepath.Join(s.cfg.UploadDir, resume.Filename), resume.OriginalFilename)
}

type StatsResponse struct {
	PostingsByStatus  map[string]int `json:"postings_by_status"`
	ActiveByCategory  map[string]int `json:"active_by_category"`
	TotalPostings     int            `json:"total_postings"`
	ActivePercentage  float64        `json:"active_percentage"`
	ServiceAreaCenter spatial.Point  `json:"service_area_center"`
	ServiceAreaRadius float64        `json:"service_area_radius_km"`
}

func (s *Server) getStats(ctx *gin.Context) {
	byStatus, err := s.jobs.CountByStatus()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	byCategory, err := s.jobs.CountByCategory()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	total := 0
	for _, count := range byStatus {
		total += count
	}

	activePct := 0.0
	if total > 0 {
		activePct = (float64(byStatus[string(StatusActive)]) / float64(total)) * 100
	}

	area := s.core.ServiceArea()

	ctx.JSON(http.StatusOK, StatsResponse{
		PostingsByStatus:  byStatus,
		ActiveByCategory:  byCategory,
		TotalPostings:     total,
		ActivePercentage:  activePct,
		ServiceAreaCenter: area.Center,
		ServiceAreaRadius: area.RadiusKm,
	})
}
