package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/charrnn/internal/history"
	"github.com/samcharles93/charrnn/internal/inference"
)

type generationJob struct {
	gen    *inference.StepGenerator
	record history.Record
}

func (s *Server) newJob(req GenerationRequest) (*generationJob, error) {
	if req.Prompt == "" {
		return nil, newInvalidRequest("prompt is required")
	}
	if err := s.checkPrompt("prompt", req.Prompt); err != nil {
		return nil, err
	}
	steps := s.defaults.Steps
	if req.Steps != nil {
		steps = *req.Steps
	}
	if steps < 0 {
		return nil, newInvalidRequest("steps must not be negative")
	}
	if s.defaults.MaxSteps > 0 && steps > s.defaults.MaxSteps {
		return nil, newInvalidRequest(fmt.Sprintf("steps must be at most %d", s.defaults.MaxSteps))
	}

	seed := s.randSeed(req.Seed)
	gen, err := inference.NewStepGenerator(s.model, s.vocab, s.temperature(req.Temperature), seed)
	if err != nil {
		return nil, err
	}
	return &generationJob{
		gen: gen,
		record: history.Record{
			ID:          history.NewID(),
			Seed:        req.Prompt,
			Temperature: gen.Temperature(),
			Steps:       steps,
			RandSeed:    seed,
			CreatedAt:   s.clock().UTC(),
		},
	}, nil
}

func toStats(st inference.Stats) *GenerationStats {
	return &GenerationStats{
		CharsGenerated: st.CharsGenerated,
		DurationMS:     st.Duration.Milliseconds(),
		CharsPerSec:    st.CharsPerSec,
	}
}

func (s *Server) handleCreateGeneration(c *echo.Context) error {
	req, err := decodeJSON[GenerationRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	job, err := s.newJob(req)
	if err != nil {
		return writeFailure(c, err)
	}
	if (req.Stream != nil && *req.Stream) || streamParam(c) {
		return s.streamGeneration(c, job)
	}

	ctx := c.Request().Context()
	res, err := job.gen.Generate(ctx, job.record.Seed, job.record.Steps, nil)
	if err != nil {
		return writeFailure(c, err)
	}
	job.record.Output = res.Text
	if err := s.store.Put(ctx, job.record); err != nil {
		return writeServerError(c, err)
	}
	s.log.Info("generation complete",
		"id", job.record.ID,
		"chars", res.Stats.CharsGenerated,
		"chars_per_sec", res.Stats.CharsPerSec,
	)
	return c.JSON(http.StatusOK, Generation{Record: job.record, Stats: toStats(res.Stats)})
}

func (s *Server) streamGeneration(c *echo.Context, job *generationJob) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")

	flusher, ok := res.(interface{ Flush() })
	if !ok {
		return writeBadRequest(c, "streaming unsupported")
	}

	id := job.record.ID
	ctx := c.Request().Context()
	out, err := job.gen.Generate(ctx, job.record.Seed, job.record.Steps, func(ch string) {
		_ = sendSSEChunk(res, GenerationChunk{ID: id, Delta: ch})
		flusher.Flush()
	})

	final := GenerationChunk{ID: id, Done: true}
	if err != nil {
		final.Error = &ErrorBody{Message: err.Error(), Type: "server_error"}
		s.log.Warn("streamed generation failed", "id", id, "error", err)
	} else {
		job.record.Output = out.Text
		if err := s.store.Put(ctx, job.record); err != nil {
			final.Error = &ErrorBody{Message: err.Error(), Type: "server_error"}
		} else {
			final.Generation = &Generation{Record: job.record, Stats: toStats(out.Stats)}
		}
	}
	_ = sendSSEChunk(res, final)
	_, _ = fmt.Fprint(res, "data: [DONE]\n\n")
	flusher.Flush()
	return nil
}

func (s *Server) handleListGenerations(c *echo.Context) error {
	limit := 20
	if q := c.QueryParam("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			return writeBadRequest(c, "limit must be a non-negative integer")
		}
		limit = n
	}
	recs, err := s.store.List(c.Request().Context(), limit)
	if err != nil {
		return writeServerError(c, err)
	}
	if recs == nil {
		recs = []history.Record{}
	}
	return c.JSON(http.StatusOK, GenerationList{Object: "list", Data: recs})
}

func (s *Server) handleGetGeneration(c *echo.Context) error {
	rec, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, history.ErrNotFound) {
		return writeNotFound(c, "generation not found")
	}
	if err != nil {
		return writeServerError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteGeneration(c *echo.Context) error {
	id := c.Param("id")
	err := s.store.Delete(c.Request().Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		return writeNotFound(c, "generation not found")
	}
	if err != nil {
		return writeServerError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":      id,
		"object":  "generation.deleted",
		"deleted": true,
	})
}
