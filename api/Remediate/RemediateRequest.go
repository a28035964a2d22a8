package api

type RemediateRequest struct {
	SessionId string `json:"sessionId"`
	AutoFix   bool   `json:"autofix"`
}
