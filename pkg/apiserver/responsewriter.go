package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grlabs/grepp/pkg/epp"
	"github.com/grlabs/grepp/pkg/model"
	"github.com/sirupsen/logrus"
)

func writeError(w http.ResponseWriter, httpStatus int, err error) {
	logrus.Errorf("got a response error: %v", err)
	o := model.ErrorResponse{
		Status:  httpStatus,
		Message: err.Error(),
	}
	res, _ := json.Marshal(o)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_, _ = w.Write(res)
}

// handleError maps registry errors onto more precise HTTP statuses before
// writing the response: unknown objects become 404 and the registry's code
// travels in the error payload.
func handleError(w http.ResponseWriter, httpStatus int, err error) {
	var re *epp.RegistryError
	if errors.As(err, &re) {
		status := http.StatusBadGateway
		if re.Code == epp.CodeObjectNotFound {
			status = http.StatusNotFound
		}
		o := model.ErrorResponse{
			Status:  status,
			Message: re.Message,
			Data:    map[string]int{"registryCode": re.Code},
		}
		res, _ := json.Marshal(o)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(res)
		return
	}

	writeError(w, httpStatus, err)
}

func writeSuccess(w http.ResponseWriter, data interface{}, msg string) {
	res, err := json.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(res)
}
