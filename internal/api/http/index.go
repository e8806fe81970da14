package http

import (
	"errors"
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wheelforge/wheelforge-backend/internal/storage/projectfs"
)

// listProjects renders the repository root: one link per known project.
func (h *Handler) listProjects(c *gin.Context) {
	projects, err := h.store.ListProjects()
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	links := make([]link, 0, len(projects))
	for _, p := range projects {
		links = append(links, link{Href: "/simple/" + p + "/", Text: p})
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", renderLinkPage(links))
}

// listProjectFiles renders a project's built artifacts. A project with no
// dist directory has produced nothing yet and is reported as not found.
func (h *Handler) listProjectFiles(c *gin.Context) {
	project := c.Param("project")

	files, err := h.store.ListArtifacts(project)
	if err != nil {
		if errors.Is(err, projectfs.ErrNotFound) {
			c.String(http.StatusNotFound, "Project not found")
			return
		}
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	links := make([]link, 0, len(files))
	for _, f := range files {
		links = append(links, link{Href: "/data/" + project + "/dist/" + f, Text: f})
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", renderLinkPage(links))
}

// serveArtifact streams a single build output. The client-supplied path may
// contain separators; the store guarantees it cannot leave the project's
// dist directory.
func (h *Handler) serveArtifact(c *gin.Context) {
	project := c.Param("project")
	filePath := strings.TrimPrefix(c.Param("filepath"), "/")

	full, err := h.store.ArtifactPath(project, filePath)
	if err != nil {
		c.String(http.StatusNotFound, "File not found")
		return
	}

	c.File(full)
}

type link struct {
	Href string
	Text string
}

func renderLinkPage(links []link) []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><body>")
	for _, l := range links {
		b.WriteString(`<a href="`)
		b.WriteString(html.EscapeString(l.Href))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(l.Text))
		b.WriteString("</a><br>")
	}
	b.WriteString("</body></html>")
	return []byte(b.String())
}
