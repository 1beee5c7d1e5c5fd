package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/artpar/convreg/app"
	"github.com/artpar/convreg/core/provider"
	"github.com/artpar/convreg/domain/convert"
	"github.com/artpar/convreg/domain/selector"
	"github.com/artpar/convreg/pkg/jsonapi"
	"github.com/artpar/convreg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 64 << 10

// Resource types.
const (
	typeConverter  = "converter-infos"
	typeResolution = "resolutions"
	typeConversion = "conversions"
	typeSelector   = "saved-selectors"
	typeAudit      = "resolution-records"
)

// Handler serves the /api/v1 endpoints.
type Handler struct {
	resolver  *app.ResolverService
	selectors *app.SelectorService
	logger    zerolog.Logger
}

// NewHandler creates the API handler.
func NewHandler(resolver *app.ResolverService, selectors *app.SelectorService, logger zerolog.Logger) *Handler {
	return &Handler{
		resolver:  resolver,
		selectors: selectors,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// ResolveRequest is the body of POST /api/v1/resolve.
type ResolveRequest struct {
	Selector string `json:"selector" example:"to-number-or-expression-number(number-to-number)"`
}

// ConvertRequest is the body of POST /api/v1/convert.
type ConvertRequest struct {
	Selector string          `json:"selector" example:"number-to-number"`
	Value    json.RawMessage `json:"value" swaggertype:"string" example:"12.5"`
	Target   string          `json:"target" example:"decimal"`
}

// SaveSelectorRequest is the body of PUT /api/v1/selectors/{name}.
type SaveSelectorRequest struct {
	Selector    string `json:"selector" example:"to-number-or-expression-number(number-to-number)"`
	Description string `json:"description,omitempty"`
}

// ListConverters returns the catalogue.
//
//	@Summary		List converters
//	@Description	Returns every converter the registry can build with its documentation URL and arity
//	@Tags			Converters
//	@Produce		json
//	@Success		200	{object}	jsonapi.Document
//	@Router			/api/v1/converters [get]
func (h *Handler) ListConverters(w http.ResponseWriter, r *http.Request) {
	catalogue := h.resolver.Catalogue()
	resources := make([]jsonapi.Resource, len(catalogue))
	for i, d := range catalogue {
		resources[i] = converterResource(d)
	}
	jsonapi.WriteCollection(w, http.StatusOK, resources)
}

// GetConverter returns one catalogue entry.
//
//	@Summary		Get converter
//	@Tags			Converters
//	@Produce		json
//	@Param			name	path		string	true	"Converter name"
//	@Success		200		{object}	jsonapi.Document
//	@Failure		404		{object}	jsonapi.Document
//	@Router			/api/v1/converters/{name} [get]
func (h *Handler) GetConverter(w http.ResponseWriter, r *http.Request) {
	d, err := h.resolver.Describe(chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, converterResource(d))
}

func converterResource(d app.ConverterDescription) jsonapi.Resource {
	return jsonapi.NewResource(typeConverter, string(d.Name)).
		Attr("name", string(d.Name)).
		Attr("url", d.URL).
		Attr("arity", d.Arity).
		Link("/api/v1/converters/" + string(d.Name)).
		Related(d.URL).
		Build()
}

// Resolve builds the converter a selector describes.
//
//	@Summary		Resolve a selector
//	@Description	Parses and builds a selector, returning its canonical form and tree
//	@Tags			Resolution
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ResolveRequest	true	"Selector"
//	@Success		200		{object}	jsonapi.Document
//	@Failure		400		{object}	jsonapi.Document
//	@Failure		404		{object}	jsonapi.Document
//	@Failure		422		{object}	jsonapi.Document
//	@Router			/api/v1/resolve [post]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := decodeBody(r, &req); err != nil {
		jsonapi.WriteBadRequest(w, err.Error())
		return
	}
	if req.Selector == "" {
		jsonapi.WriteError(w, jsonapi.ErrValidationRequired("selector"))
		return
	}

	res, err := h.resolver.Resolve(r.Context(), req.Selector)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	canonical := res.Selector.String()
	jsonapi.WriteResource(w, http.StatusOK, jsonapi.NewResource(typeResolution, canonical).
		Attr("input", res.Input).
		Attr("alias", res.Alias).
		Attr("selector", canonical).
		Attr("converter", res.Converter.String()).
		Attr("names", res.Selector.Names()).
		Attr("tree", h.resolver.Tree(res.Selector)).
		Build())
}

// Convert resolves a selector and converts a value with it.
//
//	@Summary		Convert a value
//	@Description	Resolves a selector and converts the value to the target (int, int64, float64, decimal, expression-number)
//	@Tags			Resolution
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ConvertRequest	true	"Conversion"
//	@Success		200		{object}	jsonapi.Document
//	@Failure		400		{object}	jsonapi.Document
//	@Failure		422		{object}	jsonapi.Document
//	@Router			/api/v1/convert [post]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := decodeBody(r, &req); err != nil {
		jsonapi.WriteBadRequest(w, err.Error())
		return
	}
	if req.Selector == "" {
		jsonapi.WriteError(w, jsonapi.ErrValidationRequired("selector"))
		return
	}
	target, err := convert.ParseTarget(req.Target)
	if err != nil {
		jsonapi.WriteError(w, jsonapi.ErrValidation("target", err.Error()))
		return
	}
	value, err := decodeValue(req.Value)
	if err != nil {
		jsonapi.WriteError(w, jsonapi.ErrValidation("value", err.Error()))
		return
	}

	out, err := h.resolver.Convert(r.Context(), req.Selector, value, target)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	canonical := out.Selector.String()
	jsonapi.WriteResource(w, http.StatusOK, jsonapi.NewResource(typeConversion, canonical).
		Attr("selector", canonical).
		Attr("alias", out.Alias).
		Attr("target", string(out.Target)).
		Attr("value", out.Value).
		Build())
}

// decodeValue accepts a JSON number or a string holding a number.
func decodeValue(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New("value is required")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		if d, err := decimal.NewFromString(s); err == nil {
			return d, nil
		}
	}
	return v, nil
}

// ListResolutions returns recent audit records.
//
//	@Summary		Recent resolutions
//	@Tags			Resolution
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum records (default 50, max 500)"
//	@Success		200		{object}	jsonapi.Document
//	@Router			/api/v1/resolutions [get]
func (h *Handler) ListResolutions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			jsonapi.WriteError(w, jsonapi.NewError(http.StatusBadRequest, "bad_request", "Bad Request").
				Detail("limit must be a positive integer").
				Parameter("limit").
				Build())
			return
		}
		limit = min(n, 500)
	}

	records, err := h.resolver.Recent(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resources := make([]jsonapi.Resource, len(records))
	for i, rec := range records {
		resources[i] = jsonapi.NewResource(typeAudit, rec.ID).
			Attr("selector", rec.Selector).
			Attr("outcome", rec.Outcome).
			Attr("error", rec.Error).
			Attr("duration_us", rec.Duration.Microseconds()).
			Attr("created_at", rec.CreatedAt.Format(time.RFC3339Nano)).
			Build()
	}
	jsonapi.WriteCollection(w, http.StatusOK, resources)
}

// ListSelectors returns every saved selector.
//
//	@Summary		List saved selectors
//	@Tags			Selectors
//	@Produce		json
//	@Success		200	{object}	jsonapi.Document
//	@Router			/api/v1/selectors [get]
func (h *Handler) ListSelectors(w http.ResponseWriter, r *http.Request) {
	all, err := h.selectors.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resources := make([]jsonapi.Resource, len(all))
	for i, s := range all {
		resources[i] = selectorResource(s)
	}
	jsonapi.WriteCollection(w, http.StatusOK, resources)
}

// GetSelector returns one saved selector.
//
//	@Summary		Get saved selector
//	@Tags			Selectors
//	@Produce		json
//	@Param			name	path		string	true	"Alias"
//	@Success		200		{object}	jsonapi.Document
//	@Failure		404		{object}	jsonapi.Document
//	@Router			/api/v1/selectors/{name} [get]
func (h *Handler) GetSelector(w http.ResponseWriter, r *http.Request) {
	s, err := h.selectors.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, selectorResource(s))
}

// SaveSelector validates and stores a selector under an alias.
//
//	@Summary		Save selector
//	@Description	Validates the selector by building it and stores its canonical text
//	@Tags			Selectors
//	@Accept			json
//	@Produce		json
//	@Param			name			path		string				true	"Alias"
//	@Param			X-Admin-Key		header		string				false	"Admin key"
//	@Param			Authorization	header		string				false	"Bearer admin token"
//	@Param			request			body		SaveSelectorRequest	true	"Selector"
//	@Success		200				{object}	jsonapi.Document
//	@Failure		400				{object}	jsonapi.Document
//	@Failure		401				{object}	jsonapi.Document
//	@Failure		422				{object}	jsonapi.Document
//	@Router			/api/v1/selectors/{name} [put]
func (h *Handler) SaveSelector(w http.ResponseWriter, r *http.Request) {
	var req SaveSelectorRequest
	if err := decodeBody(r, &req); err != nil {
		jsonapi.WriteBadRequest(w, err.Error())
		return
	}
	if req.Selector == "" {
		jsonapi.WriteError(w, jsonapi.ErrValidationRequired("selector"))
		return
	}

	saved, err := h.selectors.Save(r.Context(), chi.URLParam(r, "name"), req.Selector, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, selectorResource(saved))
}

// DeleteSelector removes a saved selector.
//
//	@Summary		Delete saved selector
//	@Tags			Selectors
//	@Param			name		path	string	true	"Alias"
//	@Param			X-Admin-Key		header	string	false	"Admin key"
//	@Param			Authorization	header	string	false	"Bearer admin token"
//	@Success		204
//	@Failure		401	{object}	jsonapi.Document
//	@Failure		404	{object}	jsonapi.Document
//	@Router			/api/v1/selectors/{name} [delete]
func (h *Handler) DeleteSelector(w http.ResponseWriter, r *http.Request) {
	if err := h.selectors.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonapi.WriteNoContent(w)
}

func selectorResource(s ports.SavedSelector) jsonapi.Resource {
	return jsonapi.NewResource(typeSelector, s.Name).
		Attr("selector", s.Selector).
		Attr("description", s.Description).
		Attr("created_at", s.CreatedAt.Format(time.RFC3339)).
		Attr("updated_at", s.UpdatedAt.Format(time.RFC3339)).
		Link("/api/v1/selectors/" + s.Name).
		Build()
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeError maps resolution, store and validation errors to JSON:API errors.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		syntaxErr  *selector.SyntaxError
		unknownErr *provider.UnknownComponentError
		arityErr   *provider.ArityError
		typeErr    *provider.ParameterTypeError
	)

	switch {
	case errors.As(err, &syntaxErr):
		jsonapi.WriteError(w, jsonapi.ErrSelectorSyntax(syntaxErr.Error(), syntaxErr.Pos))
	case errors.As(err, &unknownErr):
		jsonapi.WriteError(w, jsonapi.ErrUnknownComponent(string(unknownErr.Name)))
	case errors.As(err, &arityErr):
		jsonapi.WriteError(w, jsonapi.ErrArityMismatch(arityErr.Error(), arityErr.Expected, arityErr.Actual))
	case errors.As(err, &typeErr):
		jsonapi.WriteError(w, jsonapi.ErrParameterType(typeErr.Error(), typeErr.Index))
	case errors.Is(err, convert.ErrUnsupported):
		jsonapi.WriteError(w, jsonapi.ErrConversionFailed(err.Error()))
	case errors.Is(err, ports.ErrNotFound):
		jsonapi.WriteError(w, jsonapi.ErrNotFoundWithID("saved selector", chi.URLParam(r, "name")))
	case errors.Is(err, app.ErrInvalidName), errors.Is(err, app.ErrReservedName):
		jsonapi.WriteError(w, jsonapi.ErrValidation("name", err.Error()))
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		jsonapi.WriteInternalError(w, "")
	}
}
