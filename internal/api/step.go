package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/charrnn/internal/inference"
)

// handleStep is the stateless single-step endpoint. The recurrent state lives
// with the client and makes a round trip on every call.
func (s *Server) handleStep(c *echo.Context) error {
	req, err := decodeJSON[StepRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Inputs) == 0 {
		return writeBadRequest(c, "inputs is required and must not be empty")
	}
	if s.defaults.MaxBatch > 0 && len(req.Inputs) > s.defaults.MaxBatch {
		return writeBadRequest(c, fmt.Sprintf("at most %d inputs per step", s.defaults.MaxBatch))
	}
	for i, in := range req.Inputs {
		if err := s.checkPrompt(fmt.Sprintf("inputs[%d]", i), in); err != nil {
			return writeFailure(c, err)
		}
	}
	if req.State != nil {
		if err := req.State.Validate(); err != nil {
			return writeBadRequest(c, err.Error())
		}
	}

	seed := s.randSeed(req.Seed)
	gen, err := inference.NewStepGenerator(s.model, s.vocab, s.temperature(req.Temperature), seed)
	if err != nil {
		return writeFailure(c, err)
	}
	outputs, state, err := gen.Step(req.Inputs, req.State)
	if err != nil {
		return writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, StepResponse{Outputs: outputs, State: state, RandSeed: seed})
}
