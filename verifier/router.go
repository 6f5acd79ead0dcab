// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/moogar0880/problems"
	"github.com/veraison/cmdattest/command"
	"github.com/veraison/cmdattest/common"
)

const (
	ChallengePath = "/getRandom"
	CommandPath   = "/performCommand"
)

// NewRouter exposes svc over HTTP
func NewRouter(svc *Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(svc))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.GET(ChallengePath, HandleGetRandom(svc))
	r.POST(CommandPath, HandlePerformCommand(svc))

	r.NoRoute(func(c *gin.Context) {
		reportProblem(c, http.StatusNotFound, "no such endpoint")
	})

	return r
}

// HandleGetRandom handles GET /getRandom
func HandleGetRandom(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		random, err := svc.IssueRandom(c.Request.Context())
		if err != nil {
			svc.log.Error().Err(err).Msg("IssueRandom failed")
			reportProblem(c, http.StatusInternalServerError, "could not issue a challenge")
			return
		}

		c.JSON(http.StatusOK, gin.H{command.RandomKey: random})
	}
}

// HandlePerformCommand handles POST /performCommand
func HandlePerformCommand(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req command.Request

		if err := c.ShouldBindJSON(&req); err != nil {
			reportProblem(c, http.StatusBadRequest, "malformed command request: "+err.Error())
			return
		}

		if req.TokenString == "" {
			reportProblem(c, http.StatusBadRequest, "malformed command request: empty tokenString")
			return
		}

		v, err := svc.PerformCommand(c.Request.Context(), req)
		if err != nil {
			svc.log.Error().Err(err).Msg("PerformCommand failed")
			reportProblem(c, http.StatusInternalServerError, "could not process the command")
			return
		}

		c.JSON(http.StatusOK, v)
	}
}

func reportProblem(c *gin.Context, status int, detail string) {
	prob := problems.NewDetailedProblem(status, detail)

	body, err := json.Marshal(prob)
	if err != nil {
		c.AbortWithStatus(status)
		return
	}

	c.Data(status, problems.ProblemMediaType, body)
	c.Abort()
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set("request_id", id)
		c.Header(common.RequestIDHeader, id)

		c.Next()
	}
}

func accessLog(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		svc.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("request_id", c.GetString("request_id")).
			Dur("latency", time.Since(start)).
			Msg("request served")
	}
}
