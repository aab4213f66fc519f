package api

import (
	"net/http"
	"strconv"

	"github.com/LJTian/NewsHarvest/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reader 只读查询，由 storage.Store 实现
type Reader interface {
	ListArticles(source string, limit int) ([]storage.Article, error)
	ListRuns(source string, limit int) ([]storage.HarvestRun, error)
}

type Server struct {
	store Reader
}

func NewServer(store Reader) *Server {
	return &Server{store: store}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/articles", s.listArticles)
		v1.GET("/runs", s.listRuns)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	return limit
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}

func (s *Server) listArticles(c *gin.Context) {
	items, err := s.store.ListArticles(c.Query("source"), queryLimit(c))
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}

func (s *Server) listRuns(c *gin.Context) {
	runs, err := s.store.ListRuns(c.Query("source"), queryLimit(c))
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    runs,
	})
}
