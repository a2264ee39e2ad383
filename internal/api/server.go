// Package api exposes generation over HTTP with echo.
package api

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/charrnn/internal/history"
	"github.com/samcharles93/charrnn/internal/inference"
	"github.com/samcharles93/charrnn/internal/logger"
	"github.com/samcharles93/charrnn/internal/vocab"
	"github.com/samcharles93/charrnn/internal/webui"
)

// Defaults fill in request fields the client leaves out.
type Defaults struct {
	Steps       int
	Temperature float64
	// MaxSteps caps Steps on a single request; zero means no cap.
	MaxSteps int
	// MaxBatch caps the number of inputs on a step request; zero means no cap.
	MaxBatch int
	// MaxPromptRunes caps the characters of a prompt or of a step input;
	// zero means no cap.
	MaxPromptRunes int
}

func DefaultDefaults() Defaults {
	return Defaults{Steps: 1000, Temperature: 1.0, MaxSteps: 10000, MaxBatch: 64, MaxPromptRunes: 4096}
}

// Validate reports a misconfigured server before it accepts requests.
func (d Defaults) Validate() error {
	if !(d.Temperature > 0) {
		return fmt.Errorf("api: default %w: got %v", inference.ErrInvalidTemperature, d.Temperature)
	}
	var errs []error
	if d.Steps < 0 {
		errs = append(errs, fmt.Errorf("api: default steps must not be negative: got %d", d.Steps))
	}
	if d.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("api: max steps must not be negative: got %d", d.MaxSteps))
	}
	if d.MaxSteps > 0 && d.Steps > d.MaxSteps {
		errs = append(errs, fmt.Errorf("api: default steps %d exceed max steps %d", d.Steps, d.MaxSteps))
	}
	if d.MaxBatch < 0 {
		errs = append(errs, fmt.Errorf("api: max batch must not be negative: got %d", d.MaxBatch))
	}
	if d.MaxPromptRunes < 0 {
		errs = append(errs, fmt.Errorf("api: max prompt runes must not be negative: got %d", d.MaxPromptRunes))
	}
	return errors.Join(errs...)
}

type Config struct {
	Model    inference.SequenceModel
	Vocab    *vocab.Vocabulary
	Store    history.Store
	Defaults Defaults
	Log      logger.Logger
}

// Server shares one model across requests. Each request gets its own
// StepGenerator, so there is no per-sequence state on the server apart from
// finished records in the store.
type Server struct {
	model    inference.SequenceModel
	vocab    *vocab.Vocabulary
	store    history.Store
	defaults Defaults
	log      logger.Logger
	clock    func() time.Time
	seed     func() int64
}

// NewServer returns an error when cfg.Defaults cannot serve a request that
// leaves fields out. A zero Defaults takes DefaultDefaults.
func NewServer(cfg Config) (*Server, error) {
	s := &Server{
		model:    cfg.Model,
		vocab:    cfg.Vocab,
		store:    cfg.Store,
		defaults: cfg.Defaults,
		log:      cfg.Log,
		clock:    time.Now,
		seed:     rand.Int64,
	}
	if s.store == nil {
		s.store = history.NewMemoryStore()
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.defaults == (Defaults{}) {
		s.defaults = DefaultDefaults()
	}
	if err := s.defaults.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/vocab", s.handleVocab)

	e.POST("/v1/generations", s.handleCreateGeneration)
	e.GET("/v1/generations", s.handleListGenerations)
	e.GET("/v1/generations/:id", s.handleGetGeneration)
	e.DELETE("/v1/generations/:id", s.handleDeleteGeneration)

	e.POST("/v1/step", s.handleStep)

	// Playground page
	e.GET("/ui/*", echo.WrapHandler(http.StripPrefix("/ui/", http.FileServer(webui.StaticFS()))))
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":     "ok",
		"vocab_size": s.vocab.Size(),
	})
}

func (s *Server) handleVocab(c *echo.Context) error {
	return c.JSON(http.StatusOK, VocabResponse{
		Size:      s.vocab.Size(),
		UnknownID: s.vocab.UnknownID(),
		Tokens:    s.vocab.Tokens(),
	})
}

func (s *Server) temperature(t *float64) float64 {
	if t == nil {
		return s.defaults.Temperature
	}
	return *t
}

func (s *Server) randSeed(seed *int64) int64 {
	if seed == nil {
		return s.seed()
	}
	return *seed
}

func (s *Server) checkPrompt(field, text string) error {
	if s.defaults.MaxPromptRunes > 0 && utf8.RuneCountInString(text) > s.defaults.MaxPromptRunes {
		return newInvalidRequest(fmt.Sprintf("%s must be at most %d characters", field, s.defaults.MaxPromptRunes))
	}
	return nil
}
