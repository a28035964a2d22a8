package api

type DiagnoseRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}
