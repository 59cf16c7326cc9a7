package server

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	errs "github.com/techagentng/lankawatch/errors"
)

func (s *Server) setupRouter() *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	if gin.Mode() == gin.TestMode {
		s.defineRoutes(r)
		return r
	}

	// LoggerWithConfig writes request lines through logrus
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output: log.StandardLogger().Writer(),
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC1123),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(cors.New(s.corsConfig()))

	s.defineRoutes(r)
	return r
}

func (s *Server) corsConfig() cors.Config {
	conf := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE"},
		AllowHeaders: []string{"Origin", "Content-Type", requestIDHeader},
		MaxAge:       12 * time.Hour,
	}
	if len(s.Config.AllowedOrigins) == 0 || (len(s.Config.AllowedOrigins) == 1 && s.Config.AllowedOrigins[0] == "*") {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = s.Config.AllowedOrigins
	}
	return conf
}

func (s *Server) defineRoutes(router *gin.Engine) {
	router.GET("/healthz", s.handleHealth())
	if s.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}

	apirouter := router.Group("/api/v1")
	apirouter.POST("/reports", s.handleCreateReport())
	apirouter.GET("/reports", s.handleListReports())
	apirouter.GET("/reports/:id", s.handleGetReport())
	apirouter.DELETE("/reports/:id", s.handleDeleteReport())

	votes := apirouter.Group("/reports/:id/votes")
	if s.Config.VoteRateLimit > 0 {
		votes.Use(limitVoteRate(s.Config.VoteRateLimit))
	}
	votes.POST("", s.handleCastVote())
}

func limitVoteRate(perSecond uint) gin.HandlerFunc {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Second,
		Limit: perSecond,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errs.ErrorHandler,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}

var jsonFieldNames sync.Once

// useJSONFieldNames makes validation errors name fields by their json tag.
// binding.Validator is process global, so the tag func is registered once.
func useJSONFieldNames() {
	jsonFieldNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
