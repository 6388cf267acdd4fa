package monitor

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Service) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": s.cfg.Name,
			"version": "0.0.1",
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/peripherals", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"peripherals": s.Statuses(),
		})
	})

	s.router.GET("/peripherals/:addr", func(c *gin.Context) {
		raw := c.Param("addr")
		addr, err := strconv.ParseUint(raw, 0, 8)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad address: " + raw})
			return
		}
		status, ok := s.Status(byte(addr))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown peripheral: " + raw})
			return
		}
		c.JSON(http.StatusOK, status)
	})
}
