// Package http exposes the service's four endpoints: one write path that
// triggers a fetch-scaffold-build pipeline, and three read paths that serve
// the repository index straight off the filesystem.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wheelforge/wheelforge-backend/internal/builder"
	"github.com/wheelforge/wheelforge-backend/internal/fetch"
	"github.com/wheelforge/wheelforge-backend/internal/registry"
	"github.com/wheelforge/wheelforge-backend/internal/scaffold"
	"github.com/wheelforge/wheelforge-backend/internal/storage/projectfs"
)

type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url, destDir string) error
}

type Handler struct {
	store    *projectfs.Store
	resolver Resolver
	fetcher  Fetcher
	runner   *builder.Runner
}

func New(store *projectfs.Store, resolver Resolver, fetcher Fetcher, runner *builder.Runner) *Handler {
	return &Handler{
		store:    store,
		resolver: resolver,
		fetcher:  fetcher,
		runner:   runner,
	}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/compile-wheel", h.compileWheel)
	r.GET("/simple/", h.listProjects)
	r.GET("/simple/:project/", h.listProjectFiles)
	r.GET("/data/:project/dist/*filepath", h.serveArtifact)
	r.GET("/status/:project", h.buildStatus)
}

// compileWheel resolves, downloads and scaffolds synchronously, then detaches
// the build and answers. The per-project build slot is claimed before the
// directory is touched and stays claimed until the build task finishes.
func (h *Handler) compileWheel(c *gin.Context) {
	var meta scaffold.Metadata
	if err := c.ShouldBindJSON(&meta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	project, err := projectfs.SanitizeName(meta.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	if !h.runner.TryBegin(project) {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "build already in progress for " + project})
		return
	}

	projectDir, err := h.store.EnsureProjectDir(project)
	if err != nil {
		h.runner.Abort(project)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	sourceURL, err := h.resolver.Resolve(ctx, project)
	if err != nil {
		h.runner.Abort(project)
		if registry.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "package source not found on index"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}

	if err := h.fetcher.Fetch(ctx, sourceURL, projectDir); err != nil {
		h.runner.Abort(project)
		var fetchErr *fetch.FetchError
		if errors.As(err, &fetchErr) {
			c.JSON(fetchErr.StatusCode, gin.H{"ok": false, "error": fetchErr.Error()})
			return
		}
		var formatErr *fetch.UnsupportedFormatError
		if errors.As(err, &formatErr) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": formatErr.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}

	if err := scaffold.Ensure(projectDir, meta, sourceURL); err != nil {
		h.runner.Abort(project)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	if err := h.runner.Start(project, projectDir, sourceURL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Compilation initiated",
		"project_dir": projectDir,
	})
}

// buildStatus returns the persisted status record for a project's most
// recent build.
func (h *Handler) buildStatus(c *gin.Context) {
	projectDir, err := h.store.ProjectDir(c.Param("project"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}

	st, err := builder.ReadStatus(projectDir)
	if err != nil {
		if errors.Is(err, builder.ErrNoStatus) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "no build recorded for project"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, st)
}
