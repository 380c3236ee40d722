package apiserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/grlabs/grepp/pkg/backend"
	"github.com/grlabs/grepp/pkg/model"
	"github.com/grlabs/grepp/pkg/version"
	"github.com/gorilla/mux"
)

type handler struct {
	backend backend.Backend
}

func newHandler(b backend.Backend) *handler {
	return &handler{
		backend: b,
	}
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	v := version.Get()
	if err := json.NewEncoder(w).Encode(v); err != nil {
		w.WriteHeader(500)
		_, _ = w.Write([]byte(`{"success": false}`))
	}
	w.WriteHeader(200)
}

func (h *handler) checkDomain(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	resp, err := h.backend.CheckDomain(domain)
	if err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, resp, "")
}

func (h *handler) domainInfo(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	resp, err := h.backend.DomainInfo(domain)
	if err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, resp, "")
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var input model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}

	if input.Registrant.Name == "" || input.Registrant.Email == "" {
		handleError(w, http.StatusUnprocessableEntity, fmt.Errorf("registrant name and email must be provided"))
		return
	}

	domain := mux.Vars(r)["domain"]
	resp, err := h.backend.Register(domain, input)
	if err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, resp, "")
}

func (h *handler) renew(w http.ResponseWriter, r *http.Request) {
	var input model.RenewRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}
	if input.Years < 1 {
		handleError(w, http.StatusUnprocessableEntity, fmt.Errorf("years must be at least 1"))
		return
	}

	domain := mux.Vars(r)["domain"]
	resp, err := h.backend.Renew(domain, input.Years)
	if err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, resp, "")
}

func (h *handler) transfer(w http.ResponseWriter, r *http.Request) {
	var input model.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}
	if input.AuthCode == "" {
		handleError(w, http.StatusUnprocessableEntity, fmt.Errorf("authCode must be provided"))
		return
	}

	domain := mux.Vars(r)["domain"]
	if err := h.backend.Transfer(domain, input); err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, model.StatusResponse{Domain: domain, Status: "transfer requested"}, "")
}

func (h *handler) recall(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	if err := h.backend.RecallApplication(domain); err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, model.StatusResponse{Domain: domain, Status: "recalled"}, "")
}

func (h *handler) getNameservers(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	resp, err := h.backend.GetNameservers(domain)
	if err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, resp, "")
}

func (h *handler) setNameservers(w http.ResponseWriter, r *http.Request) {
	var input model.NameserversRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}
	if len(input.Nameservers) == 0 {
		handleError(w, http.StatusUnprocessableEntity, fmt.Errorf("must supply at least one nameserver"))
		return
	}

	domain := mux.Vars(r)["domain"]
	if err := h.backend.SetNameservers(domain, input.Nameservers); err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, model.NameserversResponse{Domain: domain, Nameservers: input.Nameservers}, "")
}

func (h *handler) getLock(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	resp, err := h.backend.RegistrarLock(domain)
	if err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, resp, "")
}

func (h *handler) setLock(w http.ResponseWriter, r *http.Request) {
	var input model.LockRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}

	domain := mux.Vars(r)["domain"]
	if err := h.backend.SetRegistrarLock(domain, input.Locked); err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, model.LockResponse{Domain: domain, Locked: input.Locked}, "")
}

func (h *handler) issueTransferToken(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	resp, err := h.backend.IssueTransferToken(domain)
	if err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, resp, "")
}

func (h *handler) requestDelete(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	if err := h.backend.RequestDelete(domain); err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, model.StatusResponse{Domain: domain, Status: "delete requested"}, "")
}

func (h *handler) contacts(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	resp, err := h.backend.Contacts(domain)
	if err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, resp, "")
}

func (h *handler) updateRegistrant(w http.ResponseWriter, r *http.Request) {
	var input model.RegistrantUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}

	domain := mux.Vars(r)["domain"]
	if err := h.backend.UpdateRegistrant(domain, input); err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, model.StatusResponse{Domain: domain, Status: "registrant updated"}, "")
}

func (h *handler) registerHost(w http.ResponseWriter, r *http.Request) {
	var input model.HostRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}
	if len(input.IPv4) == 0 && len(input.IPv6) == 0 {
		handleError(w, http.StatusUnprocessableEntity, fmt.Errorf("must supply at least one glue address"))
		return
	}

	host := mux.Vars(r)["host"]
	if err := h.backend.RegisterHost(host, input); err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, model.StatusResponse{Status: "host registered"}, "")
}

func (h *handler) modifyHost(w http.ResponseWriter, r *http.Request) {
	var input model.HostRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}

	host := mux.Vars(r)["host"]
	if err := h.backend.ModifyHost(host, input); err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, model.StatusResponse{Status: "host updated"}, "")
}

func (h *handler) deleteHost(w http.ResponseWriter, r *http.Request) {
	host := mux.Vars(r)["host"]

	if err := h.backend.DeleteHost(host); err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeSuccess(w, model.StatusResponse{Status: "host deleted"}, "")
}

func (h *handler) auditTrail(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.backend.AuditTrail(domain, limit)
	if err != nil {
		handleError(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, entries, "")
}

func (h *handler) queueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.backend.QueueStats()
	if err != nil {
		handleError(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, stats, "")
}
