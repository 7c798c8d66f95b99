// Package api provides the REST API server for beatline
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/james-see/beatline/pkg/midifile"
	"github.com/james-see/beatline/pkg/model"
	"github.com/james-see/beatline/pkg/playback"
	"github.com/james-see/beatline/pkg/songfile"
	"github.com/james-see/beatline/pkg/textview"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Beatline API
// @version 1.0
// @description API for editing beat-quantized compositions and rendering them to MIDI
// @host localhost:8080
// @BasePath /api/v1

// Server routes API requests to a Store
type Server struct {
	store  *Store
	router *gin.Engine
	cors   *cors.Cors
}

// NewServer builds the router over store
func NewServer(store *Store) *Server {
	s := &Server{
		store:  store,
		router: gin.Default(),
		cors: cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		}),
	}

	r := s.router
	r.GET("/health", healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/compositions", s.listCompositions)
		v1.POST("/compositions", s.createComposition)
		v1.POST("/import/midi", s.importMIDI)
		v1.GET("/compositions/:id", s.getComposition)
		v1.DELETE("/compositions/:id", s.deleteComposition)
		v1.POST("/compositions/:id/notes", s.addNote)
		v1.DELETE("/compositions/:id/notes", s.removeNote)
		v1.GET("/compositions/:id/tracks", s.listTracks)
		v1.DELETE("/compositions/:id/tracks/:track", s.removeTrack)
		v1.PUT("/compositions/:id/tracks/:track/instrument", s.setInstrument)
		v1.GET("/compositions/:id/beats/:beat", s.getBeat)
		v1.GET("/compositions/:id/flags", s.listFlags)
		v1.POST("/compositions/:id/flags", s.addFlag)
		v1.GET("/compositions/:id/playback", s.getPlayback)
		v1.GET("/compositions/:id/midi", s.getMIDI)
		v1.GET("/compositions/:id/text", s.getText)
		v1.GET("/compositions/:id/song", s.getSong)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return s
}

// Handler returns the router wrapped in CORS handling
func (s *Server) Handler() http.Handler {
	return s.cors.Handler(s.router)
}

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	return Serve(port, NewStore())
}

// Serve starts the API server over an existing store
func Serve(port int, store *Store) error {
	srv := NewServer(store)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), srv.Handler())
}

// statusFor maps model errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrOverlapConflict),
		errors.Is(err, model.ErrOverextension),
		errors.Is(err, model.ErrFlagOverlap):
		return http.StatusConflict
	case errors.Is(err, model.ErrEmptyComposition),
		errors.Is(err, model.ErrInvalidOperation),
		errors.Is(err, playback.ErrRunaway):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrInvalidArgument),
		errors.Is(err, model.ErrIndex),
		errors.Is(err, songfile.ErrSyntax):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (s *Server) with(c *gin.Context, fn func(uuid.UUID, *model.Composition) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid composition id"})
		return
	}
	if err := s.store.With(id, func(comp *model.Composition) error { return fn(id, comp) }); err != nil {
		fail(c, err)
	}
}

func intParam(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", model.ErrInvalidArgument, name, c.Param(name))
	}
	return v, nil
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
		"service": "beatline",
	})
}

// listCompositions godoc
// @Summary List compositions
// @Description Returns the id of every stored composition
// @Tags compositions
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/compositions [get]
func (s *Server) listCompositions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"compositions": s.store.IDs()})
}

// createComposition godoc
// @Summary Create a composition
// @Description Creates a composition, optionally seeded from a song document
// @Tags compositions
// @Accept json
// @Produce json
// @Param song body songfile.Document false "Initial tempo, volume, notes and repeats"
// @Success 201 {object} Summary
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/compositions [post]
func (s *Server) createComposition(c *gin.Context) {
	var doc songfile.Document
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if doc, err = songfile.Decode(body); err != nil {
			fail(c, err)
			return
		}
	}
	comp, err := doc.Composition()
	if err != nil {
		fail(c, err)
		return
	}
	id := s.store.Add(comp)
	c.JSON(http.StatusCreated, summarize(id, comp))
}

// importMIDI godoc
// @Summary Import a MIDI file
// @Description Upload a MIDI file and store it as a new composition
// @Tags compositions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file to import"
// @Success 201 {object} Summary
// @Failure 400 {object} map[string]string
// @Router /api/v1/import/midi [post]
func (s *Server) importMIDI(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	comp, err := midifile.NewImporter().Import(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := s.store.Add(comp)
	c.JSON(http.StatusCreated, summarize(id, comp))
}

// getComposition godoc
// @Summary Describe a composition
// @Tags compositions
// @Produce json
// @Param id path string true "Composition id"
// @Success 200 {object} Summary
// @Failure 404 {object} map[string]string
// @Router /api/v1/compositions/{id} [get]
func (s *Server) getComposition(c *gin.Context) {
	s.with(c, func(id uuid.UUID, comp *model.Composition) error {
		c.JSON(http.StatusOK, summarize(id, comp))
		return nil
	})
}

// deleteComposition godoc
// @Summary Delete a composition
// @Tags compositions
// @Param id path string true "Composition id"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/v1/compositions/{id} [delete]
func (s *Server) deleteComposition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid composition id"})
		return
	}
	if err := s.store.Delete(id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// NoteRequest places or removes a note spanning [Start, End)
type NoteRequest struct {
	Start      int `json:"start"`
	End        int `json:"end"`
	Instrument int `json:"instrument"`
	Pitch      int `json:"pitch"`
	Volume     int `json:"volume"`
}

// addNote godoc
// @Summary Place a note
// @Description Places a note on the first track of its instrument with room for it, chording with a matching note or opening a new track
// @Tags notes
// @Accept json
// @Produce json
// @Param id path string true "Composition id"
// @Param note body NoteRequest true "Note to place"
// @Success 201 {object} Summary
// @Failure 400 {object} map[string]string
// @Router /api/v1/compositions/{id}/notes [post]
func (s *Server) addNote(c *gin.Context) {
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.with(c, func(id uuid.UUID, comp *model.Composition) error {
		if err := comp.PlaceNote(req.Start, req.End, req.Instrument, req.Pitch, req.Volume); err != nil {
			return err
		}
		c.JSON(http.StatusCreated, summarize(id, comp))
		return nil
	})
}

// removeNote godoc
// @Summary Remove a note
// @Description Silences the matching note that starts at the given beat
// @Tags notes
// @Accept json
// @Param id path string true "Composition id"
// @Param note body NoteRequest true "Note to remove"
// @Success 204
// @Failure 400 {object} map[string]string
// @Router /api/v1/compositions/{id}/notes [delete]
func (s *Server) removeNote(c *gin.Context) {
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.with(c, func(_ uuid.UUID, comp *model.Composition) error {
		n, err := model.NoteFromPitch(req.Pitch, req.Volume, req.End-req.Start, req.Instrument)
		if err != nil {
			return err
		}
		if err := comp.RemoveNote(n, req.Start); err != nil {
			return err
		}
		c.Status(http.StatusNoContent)
		return nil
	})
}

// listTracks godoc
// @Summary List tracks
// @Description Returns every track with its events and start beats
// @Tags tracks
// @Produce json
// @Param id path string true "Composition id"
// @Success 200 {array} TrackView
// @Router /api/v1/compositions/{id}/tracks [get]
func (s *Server) listTracks(c *gin.Context) {
	s.with(c, func(_ uuid.UUID, comp *model.Composition) error {
		tracks := comp.Tracks()
		out := make([]TrackView, len(tracks))
		for i, t := range tracks {
			out[i] = trackView(i, t)
		}
		c.JSON(http.StatusOK, out)
		return nil
	})
}

// removeTrack godoc
// @Summary Remove a track
// @Tags tracks
// @Param id path string true "Composition id"
// @Param track path int true "Track index"
// @Success 204
// @Failure 400 {object} map[string]string
// @Router /api/v1/compositions/{id}/tracks/{track} [delete]
func (s *Server) removeTrack(c *gin.Context) {
	s.with(c, func(_ uuid.UUID, comp *model.Composition) error {
		index, err := intParam(c, "track")
		if err != nil {
			return err
		}
		if err := comp.RemoveTrack(index); err != nil {
			return err
		}
		c.Status(http.StatusNoContent)
		return nil
	})
}

// InstrumentRequest changes a track's instrument
type InstrumentRequest struct {
	Instrument int `json:"instrument"`
}

// setInstrument godoc
// @Summary Change a track's instrument
// @Tags tracks
// @Accept json
// @Produce json
// @Param id path string true "Composition id"
// @Param track path int true "Track index"
// @Param instrument body InstrumentRequest true "New instrument"
// @Success 200 {object} TrackView
// @Failure 400 {object} map[string]string
// @Router /api/v1/compositions/{id}/tracks/{track}/instrument [put]
func (s *Server) setInstrument(c *gin.Context) {
	var req InstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.with(c, func(_ uuid.UUID, comp *model.Composition) error {
		index, err := intParam(c, "track")
		if err != nil {
			return err
		}
		if err := comp.SetInstrument(req.Instrument, index); err != nil {
			return err
		}
		t, err := comp.Track(index)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, trackView(index, t))
		return nil
	})
}

// getBeat godoc
// @Summary Inspect a beat
// @Description Returns the notes sounding at a beat and the event covering it on each track
// @Tags notes
// @Produce json
// @Param id path string true "Composition id"
// @Param beat path int true "Beat"
// @Success 200 {object} BeatView
// @Router /api/v1/compositions/{id}/beats/{beat} [get]
func (s *Server) getBeat(c *gin.Context) {
	s.with(c, func(_ uuid.UUID, comp *model.Composition) error {
		beat, err := intParam(c, "beat")
		if err != nil {
			return err
		}
		v := BeatView{Beat: beat, Notes: noteViews(comp.NotesAtBeat(beat)), Sounds: []SoundView{}}
		for _, snd := range comp.SoundsAtBeat(beat) {
			v.Sounds = append(v.Sounds, soundView(snd))
		}
		c.JSON(http.StatusOK, v)
		return nil
	})
}

// listFlags godoc
// @Summary List repeat flags
// @Tags flags
// @Produce json
// @Param id path string true "Composition id"
// @Success 200 {array} FlagView
// @Router /api/v1/compositions/{id}/flags [get]
func (s *Server) listFlags(c *gin.Context) {
	s.with(c, func(_ uuid.UUID, comp *model.Composition) error {
		out := []FlagView{}
		for _, f := range comp.Flags() {
			out = append(out, flagView(f))
		}
		c.JSON(http.StatusOK, out)
		return nil
	})
}

// addFlag godoc
// @Summary Register a repeat flag
// @Description Adds a simple repeat, or a multi-ending one when endings are given. Overlapping brackets are rejected.
// @Tags flags
// @Accept json
// @Produce json
// @Param id path string true "Composition id"
// @Param flag body songfile.RepeatItem true "Repeat bracket"
// @Success 201 {object} FlagView
// @Failure 409 {object} map[string]string
// @Router /api/v1/compositions/{id}/flags [post]
func (s *Server) addFlag(c *gin.Context) {
	var req songfile.RepeatItem
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.with(c, func(_ uuid.UUID, comp *model.Composition) error {
		f, err := req.Flag()
		if err != nil {
			return err
		}
		if err := comp.AddFlag(f); err != nil {
			return err
		}
		c.JSON(http.StatusCreated, flagView(f))
		return nil
	})
}

// getPlayback godoc
// @Summary Unroll playback
// @Description Returns the beats in playback order with repeats applied, and the notes each one starts
// @Tags playback
// @Produce json
// @Param id path string true "Composition id"
// @Param max query int false "Beat limit"
// @Success 200 {array} playback.Step
// @Failure 422 {object} map[string]string
// @Router /api/v1/compositions/{id}/playback [get]
func (s *Server) getPlayback(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("max", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max must be a number"})
		return
	}
	s.with(c, func(_ uuid.UUID, comp *model.Composition) error {
		steps, err := playback.Timeline(comp, limit)
		if err != nil {
			return err
		}
		if steps == nil {
			steps = []playback.Step{}
		}
		c.JSON(http.StatusOK, steps)
		return nil
	})
}

// getMIDI godoc
// @Summary Export MIDI
// @Description Renders the composition, repeats unrolled, as a Standard MIDI File
// @Tags export
// @Produce application/octet-stream
// @Param id path string true "Composition id"
// @Success 200 {file} binary
// @Failure 422 {object} map[string]string
// @Router /api/v1/compositions/{id}/midi [get]
func (s *Server) getMIDI(c *gin.Context) {
	s.with(c, func(id uuid.UUID, comp *model.Composition) error {
		data, err := midifile.NewExporter().Export(comp)
		if err != nil {
			return err
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.mid", id))
		c.Data(http.StatusOK, "audio/midi", data)
		return nil
	})
}

// getText godoc
// @Summary Render the console grid
// @Tags export
// @Produce plain
// @Param id path string true "Composition id"
// @Success 200 {string} string
// @Router /api/v1/compositions/{id}/text [get]
func (s *Server) getText(c *gin.Context) {
	s.with(c, func(_ uuid.UUID, comp *model.Composition) error {
		c.String(http.StatusOK, textview.Render(comp))
		return nil
	})
}

// getSong godoc
// @Summary Export the song
// @Description Returns the composition as a song document or in the line format
// @Tags export
// @Produce json
// @Param id path string true "Composition id"
// @Param format query string false "yaml, json or text (default json)"
// @Success 200 {object} songfile.Document
// @Router /api/v1/compositions/{id}/song [get]
func (s *Server) getSong(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	s.with(c, func(_ uuid.UUID, comp *model.Composition) error {
		switch format {
		case "json":
			c.JSON(http.StatusOK, songfile.NewDocument(comp))
		case "yaml", "yml":
			data, err := songfile.MarshalYAML(comp)
			if err != nil {
				return err
			}
			c.Data(http.StatusOK, "application/yaml", data)
		case "text", "txt":
			var buf bytes.Buffer
			if err := songfile.Write(&buf, comp); err != nil {
				return err
			}
			c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
		default:
			return fmt.Errorf("%w: unknown format %q", model.ErrInvalidArgument, format)
		}
		return nil
	})
}
