package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tradedsl/backtest"
	"tradedsl/dsl"
	"tradedsl/market"
	"tradedsl/nl"
	"tradedsl/signal"
)

type Handler struct {
	parser *dsl.Parser
	runner *backtest.Runner
}

func NewHandler(runner *backtest.Runner) *Handler {
	return &Handler{parser: dsl.NewParser(), runner: runner}
}

type parseRequest struct {
	DSL string `json:"dsl" binding:"required"`
}

type ruleView struct {
	Kind      string `json:"kind"`
	Condition string `json:"condition"`
}

// Parse checks rule text and returns the parsed rules in canonical form.
func (h *Handler) Parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	strat, err := h.parser.Parse(req.DSL)
	if err != nil {
		writeError(c, err)
		return
	}

	rules := make([]ruleView, 0, len(strat.Rules))
	for _, r := range strat.Rules {
		switch r := r.(type) {
		case *dsl.EntryRule:
			rules = append(rules, ruleView{Kind: "ENTRY", Condition: r.Condition.String()})
		case *dsl.ExitRule:
			rules = append(rules, ruleView{Kind: "EXIT", Condition: r.Condition.String()})
		}
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

type translateRequest struct {
	Text string `json:"text" binding:"required"`
}

// Translate turns a natural language strategy description into rule text.
func (h *Handler) Translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := nl.Translate(req.Text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dsl": out})
}

type backtestRequest struct {
	DSL            string       `json:"dsl"`
	Text           string       `json:"text"`
	InitialCapital float64      `json:"initial_capital"`
	Bars           []market.Bar `json:"bars" binding:"required"`
}

// Backtest runs the full pipeline on bars supplied in the request. The
// strategy comes from rule text or a natural language description.
func (h *Handler) Backtest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ruleText, err := backtest.ResolveStrategy(req.DSL, "", req.Text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := backtest.DefaultRunConfig()
	cfg.DSL = ruleText
	cfg.Table = market.New(req.Bars)
	if req.InitialCapital > 0 {
		cfg.InitialCapital = req.InitialCapital
	}

	rep, err := h.runner.Run(c.Request.Context(), cfg)
	if err != nil {
		backtestsTotal.WithLabelValues("error").Inc()
		writeError(c, err)
		return
	}
	backtestsTotal.WithLabelValues("ok").Inc()

	c.JSON(http.StatusOK, gin.H{
		"run_id": uuid.NewString(),
		"report": rep,
	})
}

// writeError maps pipeline errors to status codes. Bad rule text and bad
// bars are client errors; anything unexpected is a 500.
func writeError(c *gin.Context, err error) {
	var perr *dsl.ParseError
	if errors.As(err, &perr) {
		parseErrorsTotal.Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error": perr.Error(),
			"line":  perr.Line,
			"col":   perr.Col,
		})
		return
	}

	var serr *market.SchemaError
	var uerr *signal.UnknownIndicatorError
	var everr *signal.EvalError
	switch {
	case errors.As(err, &serr), errors.As(err, &uerr), errors.As(err, &everr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
