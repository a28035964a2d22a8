package server

import (
	"errors"
	"net/http"

	diagnoseApi "github.com/David-Antunes/gone-analyzer/api/Diagnose"
	apiErrors "github.com/David-Antunes/gone-analyzer/api/Errors"
	graphApi "github.com/David-Antunes/gone-analyzer/api/Graph"
	remediateApi "github.com/David-Antunes/gone-analyzer/api/Remediate"
	"github.com/David-Antunes/gone-analyzer/internal/analyzer"
	"github.com/David-Antunes/gone-analyzer/internal/daemon"
	"github.com/David-Antunes/gone-analyzer/internal/facts"
	"github.com/David-Antunes/gone-analyzer/internal/iputil"
	"github.com/David-Antunes/gone-analyzer/internal/topology"
)

func errorCode(err error) int {
	var malformed *facts.MalformedFactsError
	var notFound *topology.EndpointNotFoundError
	var ambiguous *topology.EndpointAmbiguousError
	switch {
	case errors.As(err, &malformed):
		return apiErrors.MalformedFacts
	case errors.As(err, &notFound):
		return apiErrors.EndpointNotFound
	case errors.As(err, &ambiguous):
		return apiErrors.EndpointAmbiguous
	default:
		return apiErrors.FactSourceFailure
	}
}

func (d *Daemon) diagnose(w http.ResponseWriter, r *http.Request) {

	req := &diagnoseApi.DiagnoseRequest{}

	if err := daemon.ParseRequest(r, req); err != nil {
		daemonLog.Warn("diagnose", "err", err)
		daemon.SendError(w, &diagnoseApi.DiagnoseResponse{
			Error: apiErrors.Error{
				ErrCode: apiErrors.InvalidRequestFields,
				ErrMsg:  err.Error(),
			},
		})
		return
	}

	source, err := iputil.ParseNetwork(req.Source)
	if err != nil {
		invalidNetworks(w, req, err)
		return
	}
	destination, err := iputil.ParseNetwork(req.Destination)
	if err != nil {
		invalidNetworks(w, req, err)
		return
	}

	s, err := d.engine.Diagnose(r.Context(), source, destination)
	if err != nil {
		daemonLog.Warn("diagnose", "source", source.String(), "destination", destination.String(), "err", err)
		daemon.SendError(w, &diagnoseApi.DiagnoseResponse{
			Source:      req.Source,
			Destination: req.Destination,
			Error: apiErrors.Error{
				ErrCode: errorCode(err),
				ErrMsg:  err.Error(),
			},
		})
		return
	}
	d.keep(s)

	report := s.Report()
	resp := &diagnoseApi.DiagnoseResponse{
		SessionId:      s.ID,
		Source:         source.String(),
		Destination:    destination.String(),
		Forward:        toResult(report.Forward),
		Reverse:        toResult(report.Reverse),
		DownInterfaces: s.DownInterfaces(),
		Error:          apiErrors.Error{},
	}
	if report.Healthy() {
		resp.Path = s.ShortestPath()
	}
	daemon.SendResponse(w, resp)

	daemonLog.Info("diagnose", "session", s.ID, "forward", resp.Forward.State, "reverse", resp.Reverse.State)
}

func (d *Daemon) remediate(w http.ResponseWriter, r *http.Request) {

	req := &remediateApi.RemediateRequest{AutoFix: true}

	if err := daemon.ParseRequest(r, req); err != nil {
		daemonLog.Warn("remediate", "err", err)
		daemon.SendError(w, &remediateApi.RemediateResponse{
			Error: apiErrors.Error{
				ErrCode: apiErrors.InvalidRequestFields,
				ErrMsg:  err.Error(),
			},
		})
		return
	}

	s, ok := d.session(req.SessionId)
	if !ok {
		daemon.SendErrorStatus(w, http.StatusNotFound, &remediateApi.RemediateResponse{
			SessionId: req.SessionId,
			Error: apiErrors.Error{
				ErrCode: apiErrors.SessionNotFound,
				ErrMsg:  "session not found",
			},
		})
		return
	}

	d.remediating.Lock()
	defer d.remediating.Unlock()

	out, err := d.engine.Remediate(r.Context(), s, req.AutoFix)
	resp := &remediateApi.RemediateResponse{
		SessionId: s.ID,
		Fixed:     out.Fixed,
		Attempts:  toAttempts(out.Attempts),
		Forward:   toResult(out.Report.Forward),
		Reverse:   toResult(out.Report.Reverse),
		Error:     apiErrors.Error{},
	}
	if err != nil {
		daemonLog.Error("remediate", "session", s.ID, "err", err)
		resp.Error = apiErrors.Error{
			ErrCode: errorCode(err),
			ErrMsg:  err.Error(),
		}
		daemon.SendErrorStatus(w, http.StatusInternalServerError, resp)
		return
	}
	daemon.SendResponse(w, resp)

	daemonLog.Info("remediate", "session", s.ID, "fixed", out.Fixed, "attempts", len(out.Attempts))
}

func (d *Daemon) graph(w http.ResponseWriter, r *http.Request) {

	req := &graphApi.GraphRequest{}

	if err := daemon.ParseRequest(r, req); err != nil {
		daemonLog.Warn("graph", "err", err)
		daemon.SendError(w, &graphApi.GraphResponse{
			Error: apiErrors.Error{
				ErrCode: apiErrors.InvalidRequestFields,
				ErrMsg:  err.Error(),
			},
		})
		return
	}

	s, ok := d.session(req.SessionId)
	if !ok {
		daemon.SendErrorStatus(w, http.StatusNotFound, &graphApi.GraphResponse{
			SessionId: req.SessionId,
			Error: apiErrors.Error{
				ErrCode: apiErrors.SessionNotFound,
				ErrMsg:  "session not found",
			},
		})
		return
	}

	d.remediating.Lock()
	snap := analyzer.GraphSnapshot(s)
	d.remediating.Unlock()

	resp := &graphApi.GraphResponse{
		SessionId: s.ID,
		Forward:   toGraph(snap.Forward),
		Reverse:   toGraph(snap.Reverse),
		Error:     apiErrors.Error{},
	}
	if req.Export {
		if d.store == nil {
			daemon.SendError(w, &graphApi.GraphResponse{
				SessionId: s.ID,
				Error: apiErrors.Error{
					ErrCode: apiErrors.ExportFailure,
					ErrMsg:  "no graph database configured",
				},
			})
			return
		}
		if err := d.store.Export(r.Context(), s.ID, snap); err != nil {
			daemonLog.Error("graph", "session", s.ID, "err", err)
			resp.Error = apiErrors.Error{
				ErrCode: apiErrors.ExportFailure,
				ErrMsg:  err.Error(),
			}
			daemon.SendErrorStatus(w, http.StatusInternalServerError, resp)
			return
		}
		resp.Exported = true
	}
	daemon.SendResponse(w, resp)
}

func invalidNetworks(w http.ResponseWriter, req *diagnoseApi.DiagnoseRequest, err error) {
	daemonLog.Warn("diagnose", "err", err)
	daemon.SendError(w, &diagnoseApi.DiagnoseResponse{
		Source:      req.Source,
		Destination: req.Destination,
		Error: apiErrors.Error{
			ErrCode: apiErrors.InvalidRequestFields,
			ErrMsg:  err.Error(),
		},
	})
}
