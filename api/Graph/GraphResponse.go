package api

import (
	"github.com/David-Antunes/gone-analyzer/api"
	apiErrors "github.com/David-Antunes/gone-analyzer/api/Errors"
)

type GraphResponse struct {
	SessionId string          `json:"sessionId"`
	Forward   api.Graph       `json:"forward"`
	Reverse   api.Graph       `json:"reverse"`
	Exported  bool            `json:"exported"`
	Error     apiErrors.Error `json:"err"`
}
