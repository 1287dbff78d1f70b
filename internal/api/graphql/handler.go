package graphql

import (
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lof/customer-profile/internal/api/middleware"
)

type Handler struct {
	schema graphql.Schema
	log    zerolog.Logger
}

func NewHandler(schema graphql.Schema, log zerolog.Logger) *Handler {
	return &Handler{schema: schema, log: log}
}

type request struct {
	Query         string                 `json:"query" validate:"required"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Serve executes a GraphQL request for the session of the caller. Execution
// errors are reported in the response body with status 200.
//
// @Summary      GraphQL endpoint
// @Tags         graphql
// @Accept       json
// @Produce      json
// @Param        body  body      request  true  "GraphQL request"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /graphql [post]
func (h *Handler) Serve(c echo.Context) error {
	var req request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := WithSession(c.Request().Context(), middleware.SessionFrom(c))
	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
	if result.HasErrors() {
		h.log.Debug().Interface("errors", result.Errors).Msg("graphql request failed")
	}

	return c.JSON(http.StatusOK, result)
}
