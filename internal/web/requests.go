package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/fileops/internal/core"
)

// summarizeRequest holds the form fields of POST /api/summarize.
type summarizeRequest struct {
	GroupBy     []string `json:"group_by" validate:"dive,required"`
	Columns     []string `json:"columns" validate:"dive,required"`
	Operation   string   `json:"operation" validate:"required,aggfunc"`
	IncludeAll  bool     `json:"include_all"`
	UseCombined bool     `json:"use_combined"`
}

// reconcileRequest holds the form fields of POST /api/reconcile.
type reconcileRequest struct {
	PrimaryKey   string `json:"primary_key" validate:"required"`
	SecondaryKey string `json:"secondary_key" validate:"required"`
}

// downloadRequest holds the path and query of GET /api/results/{name}.
type downloadRequest struct {
	Name   string `json:"name" validate:"required,oneof=combined summary matched left_only right_only"`
	Format string `json:"format" validate:"omitempty,oneof=csv xlsx"`
}

// historyRequest holds the query of GET /api/history.
type historyRequest struct {
	Limit int `json:"limit" validate:"gte=0,lte=500"`
}

// newValidator reports fields by their json names and knows the
// aggregate function names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("aggfunc", func(fl validator.FieldLevel) bool {
		_, err := core.ParseAggFunc(fl.Field().String())
		return err == nil
	})
	return v
}

// validate runs the struct rules and turns failures into a request error.
func (s *Server) validate(req any) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return badRequest(fmt.Errorf("invalid request: %w", err))
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return badRequest(fmt.Errorf("invalid request: %s", strings.Join(msgs, "; ")))
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	case "aggfunc":
		return fmt.Sprintf("%s %q is not a known summary function", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// formList reads a list field. Repeated fields are taken as is; a single
// value holding a JSON array is decoded; any other single value is a
// one-element list. Values are never split on commas since column names
// may contain them.
func formList(r *http.Request, key string) ([]string, error) {
	vals := r.Form[key]
	if len(vals) != 1 {
		return vals, nil
	}
	v := strings.TrimSpace(vals[0])
	switch {
	case v == "":
		return nil, nil
	case strings.HasPrefix(v, "["):
		var out []string
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, badRequest(fmt.Errorf("invalid request: %s is not a JSON list: %w", key, err))
		}
		return out, nil
	default:
		return []string{vals[0]}, nil
	}
}

// formBool reads a checkbox-style field. Missing is false; "on" is true.
func formBool(r *http.Request, key string) (bool, error) {
	v := strings.TrimSpace(r.FormValue(key))
	switch strings.ToLower(v) {
	case "":
		return false, nil
	case "on":
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badRequest(fmt.Errorf("invalid request: %s must be true or false", key))
	}
	return b, nil
}

func (s *Server) bindSummarize(r *http.Request) (summarizeRequest, error) {
	var (
		req summarizeRequest
		err error
	)
	if req.GroupBy, err = formList(r, "group_by"); err != nil {
		return req, err
	}
	if req.Columns, err = formList(r, "columns"); err != nil {
		return req, err
	}
	if req.IncludeAll, err = formBool(r, "include_all"); err != nil {
		return req, err
	}
	if req.UseCombined, err = formBool(r, "use_combined"); err != nil {
		return req, err
	}
	req.Operation = r.FormValue("operation")
	return req, s.validate(req)
}

func (s *Server) bindReconcile(r *http.Request) (reconcileRequest, error) {
	req := reconcileRequest{
		PrimaryKey:   r.FormValue("primary_key"),
		SecondaryKey: r.FormValue("secondary_key"),
	}
	return req, s.validate(req)
}

func (s *Server) bindHistory(r *http.Request) (historyRequest, error) {
	req := historyRequest{Limit: defaultHistoryLimit}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, badRequest(fmt.Errorf("invalid request: limit must be a number"))
		}
		req.Limit = n
	}
	return req, s.validate(req)
}
