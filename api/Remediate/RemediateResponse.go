package api

import (
	"github.com/David-Antunes/gone-analyzer/api"
	apiErrors "github.com/David-Antunes/gone-analyzer/api/Errors"
)

type RemediateResponse struct {
	SessionId string          `json:"sessionId"`
	Fixed     bool            `json:"fixed"`
	Attempts  []api.Attempt   `json:"attempts"`
	Forward   api.Result      `json:"forward"`
	Reverse   api.Result      `json:"reverse"`
	Error     apiErrors.Error `json:"err"`
}
