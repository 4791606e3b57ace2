package server

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"codevault/internal/vcs"
)

type createFileRequest struct {
	FileName string `json:"file_name" binding:"required"`
	Path     string `json:"path" binding:"required"`
	Language string `json:"language"`
	AuthorID int64  `json:"author_id" binding:"required"`
	Content  string `json:"content"`
}

func (s *Server) createFile(c *gin.Context) {
	teamID, ok := int64Param(c, "team_id")
	if !ok {
		return
	}
	var req createFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	file, err := s.service.CreateFile(vcs.CreateFileRequest{
		TeamID:         teamID,
		FileName:       req.FileName,
		Path:           req.Path,
		Language:       req.Language,
		AuthorID:       req.AuthorID,
		InitialContent: req.Content,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, file)
}

func (s *Server) listFiles(c *gin.Context) {
	teamID, ok := int64Param(c, "team_id")
	if !ok {
		return
	}
	files, err := s.service.ListFiles(teamID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (s *Server) getFile(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	bundle, err := s.service.GetContentBundle(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

func (s *Server) deleteFile(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := s.service.DeleteFile(id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type saveDraftRequest struct {
	Content  string `json:"content"`
	AuthorID int64  `json:"author_id" binding:"required"`
}

func (s *Server) saveDraft(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req saveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	commit, err := s.service.SaveDraft(id, req.Content, req.AuthorID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, commit)
}

type publishRequest struct {
	Message  string `json:"message"`
	AuthorID int64  `json:"author_id" binding:"required"`
}

func (s *Server) publish(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	commit, err := s.service.Publish(id, req.Message, req.AuthorID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commit)
}

func (s *Server) history(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	branch, err := vcs.ParseBranch(c.Query("branch"), vcs.Main)
	if err != nil {
		abortWithError(c, err)
		return
	}

	commits, err := s.service.GetHistory(id, branch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"branch": branch, "commits": commits})
}

func (s *Server) download(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	branch, err := vcs.ParseBranch(c.Query("branch"), vcs.Main)
	if err != nil {
		abortWithError(c, err)
		return
	}

	dl, err := s.service.Download(id, branch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(dl.Content))
}

func (s *Server) getCommit(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	detail, err := s.service.GetCommit(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type revertRequest struct {
	Branch   string `json:"branch"`
	AuthorID *int64 `json:"author_id"`
}

func (s *Server) revert(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req revertRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	target, err := vcs.ParseBranch(req.Branch, vcs.Main)
	if err != nil {
		abortWithError(c, err)
		return
	}

	commit, err := s.service.Revert(id, target, req.AuthorID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commit)
}

func (s *Server) diff(c *gin.Context) {
	from, ok := int64Query(c, "from", true)
	if !ok {
		return
	}
	to, ok := int64Query(c, "to", true)
	if !ok {
		return
	}

	res, err := s.service.Diff(from, to)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type putAuthorRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

func (s *Server) putAuthor(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req putAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	author, err := s.service.RegisterAuthor(id, req.DisplayName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, author)
}
