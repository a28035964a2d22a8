package api

import (
	"github.com/David-Antunes/gone-analyzer/api"
	apiErrors "github.com/David-Antunes/gone-analyzer/api/Errors"
)

type DiagnoseResponse struct {
	SessionId      string              `json:"sessionId"`
	Source         string              `json:"source"`
	Destination    string              `json:"destination"`
	Forward        api.Result          `json:"forward"`
	Reverse        api.Result          `json:"reverse"`
	Path           []string            `json:"path,omitempty"`
	DownInterfaces map[string][]string `json:"downInterfaces,omitempty"`
	Error          apiErrors.Error     `json:"err"`
}
