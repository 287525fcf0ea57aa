// Package api provides the REST API server for urftunes
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/urftunes/pkg/composer"
	"github.com/james-see/urftunes/pkg/config"
	"github.com/james-see/urftunes/pkg/converter"
	"github.com/james-see/urftunes/pkg/scheduler"
	"github.com/james-see/urftunes/pkg/seed"
	"github.com/james-see/urftunes/pkg/session"
	"github.com/james-see/urftunes/pkg/voice"
)

// @title urftunes API
// @version 1.0
// @description API for composing songs from champion mastery seed vectors
// @host localhost:8080
// @BasePath /api/v1

// Server serves songs and composition sessions over HTTP.
type Server struct {
	conv      *converter.Converter
	sessions  *session.Store
	orchestra func() voice.Orchestra
}

// NewServer creates a server. Sessions play into recorders, since the
// server has no audio output.
func NewServer(cfg *config.Config) *Server {
	return &Server{
		conv:      converter.New(cfg.Session(), cfg.MIDI.TicksPerQuarter),
		sessions:  session.NewStore(),
		orchestra: func() voice.Orchestra { return voice.NewRecorder() },
	}
}

// StartServer starts the API server on the configured port
func StartServer(cfg *config.Config) error {
	log.WithFields(log.Fields{
		"function": "api.StartServer",
	}).Infof("listening on %s", cfg.Addr())
	return NewServer(cfg).Router().Run(cfg.Addr())
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/formats", listFormats)
		v1.GET("/keys", listKeys)
		v1.POST("/songs", s.handleBuildSong)
		v1.POST("/songs/convert", s.handleConvert)

		sessions := v1.Group("/sessions")
		sessions.GET("", s.listSessions)
		sessions.POST("", s.createSession)
		sessions.GET("/:id", s.getSession)
		sessions.PUT("/:id", s.rebuildSession)
		sessions.DELETE("/:id", s.deleteSession)
		sessions.GET("/:id/triggers", s.sessionTriggers)
		sessions.GET("/:id/midi", s.sessionMIDI)
		sessions.POST("/:id/play", s.playSession)
		sessions.POST("/:id/stop", s.stopSession)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "urftunes",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the export formats and conversion paths
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     converter.Formats,
		"conversions": converter.GetSupportedConversions(),
	})
}

// listKeys godoc
// @Summary List seed vector keys
// @Description Returns the champion keys each generation stage reads
// @Tags info
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/keys [get]
func listKeys(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tempo":      seed.TempoKeys,
		"form":       seed.FormKeys,
		"harmony":    seed.HarmonyKeys,
		"melody":     seed.MelodyKeys,
		"background": seed.BackgroundKeys,
		"max_level":  seed.MaxLevel,
	})
}

// handleBuildSong godoc
// @Summary Build a song
// @Description Compose a song from a seed vector (JSON or YAML body)
// @Tags songs
// @Accept json
// @Produce json,application/x-yaml,application/x-msgpack,audio/midi
// @Param format query string false "json (default), yaml, msgpack or midi"
// @Success 200 {object} converter.Document
// @Failure 400 {object} map[string]string
// @Router /api/v1/songs [post]
func (s *Server) handleBuildSong(c *gin.Context) {
	v, ok := bindVector(c)
	if !ok {
		return
	}
	doc, err := s.conv.Compose(v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.writeDocument(c, doc, converter.ParseFormat(c.DefaultQuery("format", "json")), "song")
}

// handleConvert godoc
// @Summary Convert a seed or song file
// @Description Upload a seed vector or exported song and receive it in another format
// @Tags songs
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "Seed vector or song file"
// @Param to query string false "Output format (default: midi)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/songs/convert [post]
func (s *Server) handleConvert(c *gin.Context) {
	// Get uploaded file
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()

	// Read file content
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	doc, err := s.conv.Decode(data, converter.DetectFormat(header.Filename))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Generate output filename
	outputName := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	if outputName == "" {
		outputName = "converted"
	}
	s.writeDocument(c, doc, converter.ParseFormat(c.DefaultQuery("to", "midi")), outputName)
}

func (s *Server) writeDocument(c *gin.Context, doc *converter.Document, format converter.Format, name string) {
	if format == converter.FormatUnknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported format"})
		return
	}
	if format == converter.FormatJSON {
		c.JSON(http.StatusOK, doc)
		return
	}

	result, err := s.conv.Export(doc, format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Set content type and headers
	var contentType string
	switch format {
	case converter.FormatMIDI:
		contentType = "audio/midi"
	case converter.FormatYAML:
		contentType = "application/x-yaml"
	case converter.FormatMsgpack:
		contentType = "application/x-msgpack"
	default:
		contentType = "application/octet-stream"
	}

	result.Filename = name + format.Extension()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", result.Filename))
	c.Data(http.StatusOK, contentType, result.Data)
}

// bindVector reads a seed vector from the request body.
func bindVector(c *gin.Context) (seed.Vector, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return nil, false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return seed.Vector{}, true
	}
	v, err := seed.Parse(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return v, true
}

type sessionView struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Seed      seed.Vector     `json:"seed"`
	Tempo     scheduler.Tempo `json:"tempo"`
	Form      []int           `json:"form"`
	Playing   bool            `json:"playing"`
	Song      *composer.Song  `json:"song,omitempty"`
}

func viewOf(sess *session.Session, withSong bool) sessionView {
	song := sess.Song()
	v := sessionView{
		ID:        sess.ID.String(),
		CreatedAt: sess.CreatedAt,
		Seed:      sess.Vector(),
		Tempo:     sess.Tempo(),
		Form:      song.Form,
		Playing:   sess.Playing(),
	}
	if withSong {
		v.Song = song
	}
	return v
}

func (s *Server) lookup(c *gin.Context) (*session.Session, bool) {
	sess, err := s.sessions.Lookup(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return sess, true
}

// listSessions godoc
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sessions [get]
func (s *Server) listSessions(c *gin.Context) {
	views := []sessionView{}
	for _, sess := range s.sessions.List() {
		views = append(views, viewOf(sess, false))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": views})
}

// createSession godoc
// @Summary Create a session
// @Description Build a song from a seed vector and keep it as a session
// @Tags sessions
// @Accept json
// @Produce json
// @Success 201 {object} sessionView
// @Failure 400 {object} map[string]string
// @Router /api/v1/sessions [post]
func (s *Server) createSession(c *gin.Context) {
	v, ok := bindVector(c)
	if !ok {
		return
	}
	sess, err := session.New(v, s.conv.Settings())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.sessions.Add(sess)
	c.JSON(http.StatusCreated, viewOf(sess, true))
}

// getSession godoc
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} sessionView
// @Failure 404 {object} map[string]string
// @Router /api/v1/sessions/{id} [get]
func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(sess, true))
}

// rebuildSession godoc
// @Summary Rebuild a session
// @Description Stop playback and rebuild the song from a new seed vector
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} sessionView
// @Failure 404 {object} map[string]string
// @Router /api/v1/sessions/{id} [put]
func (s *Server) rebuildSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	v, ok := bindVector(c)
	if !ok {
		return
	}
	if err := sess.Rebuild(v); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, viewOf(sess, true))
}

// deleteSession godoc
// @Summary Delete a session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/v1/sessions/{id} [delete]
func (s *Server) deleteSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	if err := s.sessions.Delete(sess.ID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// sessionTriggers godoc
// @Summary Scheduled triggers
// @Description Returns every instrument trigger of the session's song in start order
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param track query string false "Only this track (drums, bass, melody, background)"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/triggers [get]
func (s *Server) sessionTriggers(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	triggers, err := sess.Triggers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if track := c.Query("track"); track != "" {
		filtered := triggers[:0]
		for _, tr := range triggers {
			if string(tr.Track) == track {
				filtered = append(filtered, tr)
			}
		}
		triggers = filtered
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(triggers),
		"triggers": triggers,
	})
}

// sessionMIDI godoc
// @Summary Download the session as MIDI
// @Tags sessions
// @Produce audio/midi
// @Param id path string true "Session ID"
// @Success 200 {file} binary
// @Router /api/v1/sessions/{id}/midi [get]
func (s *Server) sessionMIDI(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	doc := &converter.Document{Seed: sess.Vector(), Tempo: sess.Tempo(), Song: sess.Song()}
	s.writeDocument(c, doc, converter.FormatMIDI, "session-"+sess.ID.String())
}

// playSession godoc
// @Summary Play a session
// @Description Issue every trigger of the session to the server's orchestra
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/play [post]
func (s *Server) playSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	n, err := sess.Play(s.orchestra())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": sess.ID.String(), "triggers": n, "playing": true})
}

// stopSession godoc
// @Summary Stop a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/stop [post]
func (s *Server) stopSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	sess.Stop()
	c.JSON(http.StatusOK, gin.H{"id": sess.ID.String(), "playing": false})
}
