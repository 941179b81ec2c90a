package server

import (
	"context"
	"net/http"

	appErr "agentcell/pkg/errors"
	"agentcell/pkg/utils/contextkey"
	"agentcell/pkg/utils/logger"
	"agentcell/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type executeRequest struct {
	Command  string            `json:"command" binding:"required"`
	Args     []string          `json:"args"`
	Env      map[string]string `json:"env"`
	Detached bool              `json:"detached"`
}

type executeResponse struct {
	ExecutionID string `json:"execution_id"`
	Stdout      string `json:"stdout"`
	Stderr      string `json:"stderr"`
	ExitCode    int    `json:"exit_code"`
}

func (svc *ServiceContext) executeHandler(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	executionID := uuid.NewString()
	ctx := context.WithValue(c.Request.Context(), contextkey.ExecutionID, executionID)

	logger.Info(ctx, "execute request",
		zap.String("command", req.Command),
		zap.Int("args", len(req.Args)),
		zap.Bool("detached", req.Detached),
	)

	if req.Detached {
		if err := svc.Box.ExecuteDetached(ctx, req.Command, req.Args, req.Env); err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, executeResponse{ExecutionID: executionID})
		return
	}

	res, err := svc.Box.Execute(ctx, req.Command, req.Args, req.Env)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, executeResponse{
		ExecutionID: executionID,
		Stdout:      res.Stdout,
		Stderr:      res.Stderr,
		ExitCode:    res.ExitCode,
	})
}

type toolchainRequest struct {
	Source     string `json:"source" binding:"required"`
	OutputName string `json:"output_name" binding:"required"`
}

func (svc *ServiceContext) toolchainHandler(c *gin.Context) {
	var req toolchainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	executionID := uuid.NewString()
	ctx := context.WithValue(c.Request.Context(), contextkey.ExecutionID, executionID)

	res, err := svc.Pipeline.AssembleLinkRun(ctx, req.Source, req.OutputName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (svc *ServiceContext) resolveHandler(c *gin.Context) {
	virtualPath := c.Query("path")
	if virtualPath == "" {
		response.BadRequest(c, "path query parameter is required")
		return
	}
	resolved, err := svc.Box.ResolvePath(virtualPath)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"path": resolved})
}

type writeFileRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
	Append  bool   `json:"append"`
}

func (svc *ServiceContext) writeFileHandler(c *gin.Context) {
	var req writeFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	var err error
	if req.Append {
		err = svc.Box.AppendFile(req.Path, []byte(req.Content))
	} else {
		err = svc.Box.WriteFile(req.Path, []byte(req.Content))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"path": req.Path})
}

func (svc *ServiceContext) readFileHandler(c *gin.Context) {
	virtualPath := c.Query("path")
	if virtualPath == "" {
		response.BadRequest(c, "path query parameter is required")
		return
	}
	data, err := svc.Box.ReadFile(virtualPath)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"path": virtualPath, "content": string(data)})
}

func (svc *ServiceContext) listDirHandler(c *gin.Context) {
	virtualPath := c.DefaultQuery("path", "/")
	entries, err := svc.Box.ListDir(virtualPath)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"path": virtualPath, "entries": entries})
}

func (svc *ServiceContext) removeFileHandler(c *gin.Context) {
	virtualPath := c.Query("path")
	if virtualPath == "" {
		response.BadRequest(c, "path query parameter is required")
		return
	}
	if err := svc.Box.Remove(virtualPath); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"path": virtualPath})
}

type registerPluginRequest struct {
	Name   string `json:"name" binding:"required"`
	Type   string `json:"type" binding:"required"`
	Active bool   `json:"active"`
}

func (svc *ServiceContext) registerPluginHandler(c *gin.Context) {
	var req registerPluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	svc.Plugins.Register(req.Name, req.Type, req.Active)
	info, _ := svc.Plugins.Get(req.Name)
	response.Success(c, info)
}

func (svc *ServiceContext) listPluginsHandler(c *gin.Context) {
	if c.Query("active") == "true" {
		response.Success(c, gin.H{"plugins": svc.Plugins.ListActive()})
		return
	}
	response.Success(c, gin.H{"plugins": svc.Plugins.ListAll()})
}

func (svc *ServiceContext) getPluginHandler(c *gin.Context) {
	name := c.Param("name")
	info, ok := svc.Plugins.Get(name)
	if !ok {
		response.ErrorWithCode(c, appErr.PluginNotFound, "")
		return
	}
	response.Success(c, info)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (svc *ServiceContext) setPluginActiveHandler(c *gin.Context) {
	name := c.Param("name")
	if _, ok := svc.Plugins.Get(name); !ok {
		response.ErrorWithCode(c, appErr.PluginNotFound, "")
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	svc.Plugins.SetActive(name, *req.Active)
	info, _ := svc.Plugins.Get(name)
	response.Success(c, info)
}

type setSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

func (svc *ServiceContext) setPluginSettingHandler(c *gin.Context) {
	name := c.Param("name")
	if _, ok := svc.Plugins.Get(name); !ok {
		response.ErrorWithCode(c, appErr.PluginNotFound, "")
		return
	}
	var req setSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	svc.Plugins.SetSetting(name, req.Key, req.Value)
	info, _ := svc.Plugins.Get(name)
	response.Success(c, info)
}

func (svc *ServiceContext) getPluginSettingHandler(c *gin.Context) {
	name := c.Param("name")
	if _, ok := svc.Plugins.Get(name); !ok {
		response.ErrorWithCode(c, appErr.PluginNotFound, "")
		return
	}
	key := c.Param("key")
	response.Success(c, gin.H{"key": key, "value": svc.Plugins.GetSetting(name, key)})
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
