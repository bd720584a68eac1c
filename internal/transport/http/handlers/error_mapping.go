package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// errorMap translates usecase sentinels into HTTP responses. Handlers build
// one per operation at package init and call respond in their failure path.
type errorMap struct {
	cases    []errorCase
	fallback errorCase
}

type errorCase struct {
	err     error
	status  int
	message string
}

func newErrorMap(fallbackStatus int, fallbackMessage string) *errorMap {
	return &errorMap{fallback: errorCase{status: fallbackStatus, message: fallbackMessage}}
}

// on registers a sentinel with its status and client-facing message. Entries
// match in registration order.
func (m *errorMap) on(err error, status int, message string) *errorMap {
	m.cases = append(m.cases, errorCase{err: err, status: status, message: message})
	return m
}

// respond writes the first matching mapping for err, or the fallback.
// Matching uses errors.Is so wrapped sentinels resolve too.
func (m *errorMap) respond(c *gin.Context, err error) {
	for _, cs := range m.cases {
		if cs.err != nil && errors.Is(err, cs.err) {
			c.JSON(cs.status, NewErrorResponse(c, cs.message))
			return
		}
	}
	c.JSON(m.fallback.status, NewErrorResponse(c, m.fallback.message))
}
