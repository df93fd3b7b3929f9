package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/coolbeans/adalat/pkg/causelist"
	"github.com/coolbeans/adalat/pkg/ecourts"
	"github.com/coolbeans/adalat/pkg/jurisdiction"
)

// optionsResponse is the payload of the lookup endpoints. Options is always
// present, empty included: an empty option set at a level is a valid answer,
// not an error.
type optionsResponse struct {
	Options []jurisdiction.CodeName `json:"options"`
	Trace   jurisdiction.Trace      `json:"trace"`
}

// searchRequest is the body of POST /api/search. Exactly one identifier form
// must be supplied: a CNR, or a type/number/year triple.
type searchRequest struct {
	CNR      string `json:"cnr,omitempty"`
	CaseType string `json:"case_type,omitempty"`
	Number   int    `json:"number,omitempty"`
	Year     int    `json:"year,omitempty"`

	State    string `json:"state"`
	District string `json:"district,omitempty"`
	Complex  string `json:"complex,omitempty"`
	Court    string `json:"court,omitempty"`

	Date        string `json:"date,omitempty"`
	DownloadPDF bool   `json:"download_pdf,omitempty"`
}

// bulkRequest is the body of POST /api/bulk. Without an identifier the run
// locates cause lists; with one it searches every court of the complex.
type bulkRequest struct {
	searchRequest
}

type errorResponse struct {
	Error string `json:"error"`
}

func (server *Server) handleStates(writer http.ResponseWriter, request *http.Request) {
	server.respondOptions(writer, jurisdiction.LevelState, jurisdiction.Path{})
}

func (server *Server) handleDistricts(writer http.ResponseWriter, request *http.Request) {
	parent := jurisdiction.Path{
		State: jurisdiction.CodeName{Code: request.PathValue("state")},
	}
	server.respondOptions(writer, jurisdiction.LevelDistrict, parent)
}

func (server *Server) handleComplexes(writer http.ResponseWriter, request *http.Request) {
	parent := jurisdiction.Path{
		State:    jurisdiction.CodeName{Code: request.PathValue("state")},
		District: jurisdiction.CodeName{Code: request.PathValue("district")},
	}
	server.respondOptions(writer, jurisdiction.LevelComplex, parent)
}

func (server *Server) handleCourts(writer http.ResponseWriter, request *http.Request) {
	parent := jurisdiction.Path{
		State:    jurisdiction.CodeName{Code: request.PathValue("state")},
		District: jurisdiction.CodeName{Code: request.PathValue("district")},
		Complex:  jurisdiction.CodeName{Code: request.PathValue("complex")},
	}
	server.respondOptions(writer, jurisdiction.LevelCourt, parent)
}

// respondOptions resolves one level and writes the option set. A fully
// unresolved level degrades to an empty option set with the miss trace
// attached; only a malformed parent path is a client error.
func (server *Server) respondOptions(writer http.ResponseWriter, level jurisdiction.Level, parent jurisdiction.Path) {
	options, trace, err := server.resolver.Options(level, parent)
	if err != nil {
		var unresolvedErr *jurisdiction.UnresolvedLevelError
		if !errors.As(err, &unresolvedErr) {
			writeJSON(writer, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		server.logger.Warn("lookup level unresolved",
			zap.String("level", string(level)))
		options = []jurisdiction.CodeName{}
	}
	if options == nil {
		options = []jurisdiction.CodeName{}
	}
	writeJSON(writer, http.StatusOK, optionsResponse{Options: options, Trace: trace})
}

func (server *Server) handleSearch(writer http.ResponseWriter, request *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeJSON(writer, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	identifier, err := identifierFrom(body)
	if err != nil {
		writeJSON(writer, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	query, traces, ok := server.buildQuery(writer, body)
	if !ok {
		return
	}

	outcome, err := server.engine.Search(causelist.SearchRequest{
		Identifier:  identifier,
		Query:       query,
		Traces:      traces,
		DownloadPDF: body.DownloadPDF,
	})
	if err != nil {
		server.writeSearchError(writer, err)
		return
	}
	writeJSON(writer, http.StatusOK, outcome)
}

func (server *Server) handleBulk(writer http.ResponseWriter, request *http.Request) {
	var body bulkRequest
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeJSON(writer, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	query, traces, ok := server.buildQuery(writer, body.searchRequest)
	if !ok {
		return
	}

	if body.CNR == "" && body.CaseType == "" {
		// No identifier: locate every court's cause list instead.
		result, err := server.engine.ComplexCauseLists(query, body.DownloadPDF)
		if err != nil {
			server.writeSearchError(writer, err)
			return
		}
		writeJSON(writer, http.StatusOK, result)
		return
	}

	identifier, err := identifierFrom(body.searchRequest)
	if err != nil {
		writeJSON(writer, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := server.engine.SearchComplex(causelist.SearchRequest{
		Identifier:  identifier,
		Query:       query,
		Traces:      traces,
		DownloadPDF: body.DownloadPDF,
	})
	if err != nil {
		server.writeSearchError(writer, err)
		return
	}
	writeJSON(writer, http.StatusOK, result)
}

// buildQuery resolves the request's jurisdiction selectors and date. On
// failure it writes the error response and reports false.
func (server *Server) buildQuery(writer http.ResponseWriter, body searchRequest) (causelist.Query, []jurisdiction.Trace, bool) {
	path, traces, err := server.engine.ResolvePath(causelist.Selectors{
		State:    body.State,
		District: body.District,
		Complex:  body.Complex,
		Court:    body.Court,
	})
	if err != nil {
		server.writeSearchError(writer, err)
		return causelist.Query{}, nil, false
	}

	date := causelist.Today()
	if body.Date != "" {
		parsed, parseErr := causelist.ParseDate(body.Date)
		if parseErr != nil {
			writeJSON(writer, http.StatusBadRequest, errorResponse{Error: parseErr.Error()})
			return causelist.Query{}, nil, false
		}
		date = parsed
	}

	return causelist.Query{Jurisdiction: path, Date: date}, traces, true
}

// writeSearchError maps pipeline errors to status codes: bad identifiers and
// selectors are client errors, an unresolved jurisdiction level is an
// upstream failure.
func (server *Server) writeSearchError(writer http.ResponseWriter, err error) {
	var invalidErr *ecourts.InvalidIdentifierError
	if errors.As(err, &invalidErr) {
		writeJSON(writer, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var unresolvedErr *jurisdiction.UnresolvedLevelError
	if errors.As(err, &unresolvedErr) {
		writeJSON(writer, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(writer, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// identifierFrom validates the identifier fields of a request body.
func identifierFrom(body searchRequest) (ecourts.CaseIdentifier, error) {
	if body.CNR != "" {
		return ecourts.ParseCNR(body.CNR)
	}
	return ecourts.NewTypeNumberYear(body.CaseType, body.Number, body.Year)
}

func writeJSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	json.NewEncoder(writer).Encode(payload)
}
