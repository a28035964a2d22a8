package api

type GraphRequest struct {
	SessionId string `json:"sessionId"`
	Export    bool   `json:"export"`
}
