package daemon

import (
	"encoding/json"
	"net/http"

	"github.com/David-Antunes/gone-analyzer/internal/logger"
)

var daemonLog = logger.New("daemon")

func ParseRequest(r *http.Request, apiRequestStruct any) error {

	d := json.NewDecoder(r.Body)
	if err := d.Decode(apiRequestStruct); err != nil {
		return err
	}
	return nil
}

func SendResponse(w http.ResponseWriter, apiRequestStruct any) {

	resp, err := json.Marshal(apiRequestStruct)

	if err != nil {
		daemonLog.Error("error marshalling response", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(resp)
}

func SendError(w http.ResponseWriter, apiRequestStruct any) {
	SendErrorStatus(w, http.StatusBadRequest, apiRequestStruct)
}

func SendErrorStatus(w http.ResponseWriter, status int, apiRequestStruct any) {

	resp, err := json.Marshal(apiRequestStruct)

	if err != nil {
		daemonLog.Error("error marshalling response", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(resp)
}
