package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/sanops/asbuilt/api/v1"
	"github.com/sanops/asbuilt/internal/store"
	srvErrors "github.com/sanops/asbuilt/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GetStatus returns the collector state machine snapshot.
// (GET /status)
func (h *Handler) GetStatus(c *gin.Context) {
	var status v1.Status
	status.FromModel(h.collector.Status())
	c.JSON(http.StatusOK, status)
}

// GetRuns returns the run history, newest first, with pagination.
// (GET /runs)
func (h *Handler) GetRuns(c *gin.Context) {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(c, "page_size", defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	ctx := c.Request.Context()
	opts := []store.ListOption{
		store.WithDefaultSort(),
		store.WithLimit(uint64(pageSize)),
		store.WithOffset(uint64((page - 1) * pageSize)),
	}
	if cluster := c.Query("cluster"); cluster != "" {
		opts = append(opts, store.ByCluster(cluster))
	}

	runs, err := h.store.Runs().List(ctx, opts...)
	if err != nil {
		zap.S().Named("run_handler").Errorw("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to list runs"})
		return
	}

	var countOpts []store.ListOption
	if cluster := c.Query("cluster"); cluster != "" {
		countOpts = append(countOpts, store.ByCluster(cluster))
	}
	total, err := h.store.Runs().Count(ctx, countOpts...)
	if err != nil {
		zap.S().Named("run_handler").Errorw("failed to count runs", "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to count runs"})
		return
	}

	pageCount := (total + pageSize - 1) / pageSize
	if pageCount == 0 {
		pageCount = 1
	}

	apiRuns := make([]v1.Run, 0, len(runs))
	for _, run := range runs {
		apiRuns = append(apiRuns, v1.NewRunFromModel(run))
	}

	c.JSON(http.StatusOK, v1.RunListResponse{
		Page:      page,
		PageCount: pageCount,
		Total:     total,
		Runs:      apiRuns,
	})
}

// GetRunInventory returns the full inventory document of one run.
// (GET /runs/{id}/inventory)
func (h *Handler) GetRunInventory(c *gin.Context) {
	run, err := h.store.Runs().Get(c.Request.Context(), c.Param("id"))
	if srvErrors.IsResourceNotFoundError(err) {
		c.JSON(http.StatusNotFound, v1.Error{Error: "run not found"})
		return
	}
	if err != nil {
		zap.S().Named("run_handler").Errorw("failed to fetch run", "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to fetch run"})
		return
	}
	c.Data(http.StatusOK, "application/json", run.Inventory)
}

// StartCollection triggers a collection run off the request path.
// (POST /collect)
func (h *Handler) StartCollection(c *gin.Context) {
	runID, err := h.collector.Trigger()
	if srvErrors.IsCollectionInProgressError(err) {
		c.JSON(http.StatusConflict, v1.Error{Error: "collection already in progress"})
		return
	}
	if err != nil {
		zap.S().Named("run_handler").Errorw("failed to trigger collection", "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to trigger collection"})
		return
	}
	c.JSON(http.StatusAccepted, v1.TriggerResponse{RunId: runID})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
