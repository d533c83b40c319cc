package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"bugscan/scanner"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Server bundles dependencies for HTTP handlers.
type Server struct {
	store     JobStore
	minPrefix int
}

// NewServer creates a new API server instance. CIDR submissions shorter than
// minPrefix bits are rejected.
func NewServer(store JobStore, minPrefix int) *Server {
	return &Server{store: store, minPrefix: minPrefix}
}

// RegisterRoutes attaches handlers to the provided Gin router group.
func (s *Server) RegisterRoutes(routes gin.IRoutes) {
	routes.POST("/scans", s.createScanHandler)
	routes.GET("/scans/:id", s.getScanHandler)
}

// @Summary      Create a new scan job
// @Description  Submit hosts (or a CIDR block), ports, methods and a probe mode. The job is queued and executed by background workers on a bounded pool.
// @Description  **Lifecycle**: POST /scans answers with HTTP 202 and the job identifier. Poll GET /scans/{id} to observe pending → running → completed/failed. Verdict lines accumulate while the job runs.
// @Tags         Scans
// @Accept       json
// @Produce      json
// @Param        scanRequest  body      CreateScanRequest     true  "Scan request parameters"
// @Success      202          {object}  ScanAcceptedResponse  "Scan accepted"
// @Failure      400          {object}  ErrorResponse         "Malformed JSON body, failed validation or CIDR wider than API_MIN_PREFIX"
// @Failure      401          {object}  ErrorResponse         "Missing or incorrect API key"
// @Failure      429          {object}  ErrorResponse         "Rate limit exceeded"
// @Failure      500          {object}  ErrorResponse         "Internal error while persisting or queueing the job"
// @Security     ApiKeyAuth
// @Router       /scans [post]
func (s *Server) createScanHandler(c *gin.Context) {
	var req CreateScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request payload: %v", err)})
		return
	}
	if err := validateTargets(req, s.minPrefix); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ports := req.Ports
	if len(ports) == 0 {
		ports = []int{80}
	}
	methods := req.Methods
	if len(methods) == 0 {
		methods = []string{"head"}
	}

	job := &ScanJob{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Hosts:     req.Hosts,
		CIDR:      req.CIDR,
		Ports:     ports,
		Methods:   methods,
		Mode:      req.Mode,
		CreatedAt: time.Now().UTC(),
	}
	c.Set(jobIDKey, job.ID)

	ctx := c.Request.Context()
	if err := s.store.CreateJob(ctx, job); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to persist job"})
		return
	}

	if err := s.store.PushToQueue(ctx, job.ID); err != nil {
		job.Status = StatusFailed
		job.Error = "failed to queue job"
		now := time.Now().UTC()
		job.CompletedAt = &now
		_ = s.store.UpdateJob(ctx, job)

		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to queue job"})
		return
	}

	c.JSON(http.StatusAccepted, ScanAcceptedResponse{ID: job.ID, Status: job.Status})
}

// @Summary      Get scan status and verdict lines
// @Description  Retrieve a snapshot of a scan job. Lines grow while the job is running; stats are attached once it is completed or failed.
// @Tags         Scans
// @Produce      json
// @Param        id   path      string         true  "Scan Job ID (UUID v4)"
// @Success      200  {object}  ScanJob        "Current job snapshot"
// @Failure      400  {object}  ErrorResponse  "Malformed job identifier"
// @Failure      401  {object}  ErrorResponse  "Missing or incorrect API key"
// @Failure      404  {object}  ErrorResponse  "Job with the provided ID does not exist"
// @Failure      429  {object}  ErrorResponse  "Rate limit exceeded"
// @Failure      500  {object}  ErrorResponse  "Internal error when loading the job"
// @Security     ApiKeyAuth
// @Router       /scans/{id} [get]
func (s *Server) getScanHandler(c *gin.Context) {
	id := c.Param("id")
	if parsed, err := uuid.Parse(id); err != nil || parsed.Version() != 4 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid job id format"})
		return
	}
	c.Set(jobIDKey, id)
	job, err := s.store.GetJob(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load job"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// validateTargets requires a host source and rejects a CIDR block that
// cannot be expanded or is wider than /minPrefix.
func validateTargets(req CreateScanRequest, minPrefix int) error {
	if len(req.Hosts) == 0 && req.CIDR == "" {
		return errors.New("either hosts or cidr is required")
	}
	if len(req.Hosts) > 0 {
		return nil
	}
	if _, err := scanner.HostsFromCIDR(req.CIDR); err != nil {
		return err
	}
	if prefix := netip.MustParsePrefix(req.CIDR); prefix.Bits() < minPrefix {
		return fmt.Errorf("cidr %s is too large: prefix must be /%d or longer", req.CIDR, minPrefix)
	}
	return nil
}
